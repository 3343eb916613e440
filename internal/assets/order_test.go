package assets

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sortedRels(o orderer, paths ...string) []string {
	files := make([]AssetFile, len(paths))
	for i, p := range paths {
		files[i] = AssetFile{Rel: p}
	}
	o.sort(files)
	return rels(files)
}

func TestOrderDirectoriesBeforeFiles(t *testing.T) {
	o := newOrderer(nil)

	got := sortedRels(o, "b.js", "a/z.js", "a.js", "c/d/e.js")
	assert.Equal(t, []string{"a/z.js", "c/d/e.js", "a.js", "b.js"}, got)
}

func TestOrderVendorsFirst(t *testing.T) {
	o := newOrderer([]string{"vendor", "lib"})

	got := sortedRels(o, "app/main.js", "Lib/x.js", "vendor/jquery.js", "admin/a.js", "zeta.js")
	assert.Equal(t, []string{"Lib/x.js", "vendor/jquery.js", "admin/a.js", "app/main.js", "zeta.js"}, got)
}

func TestOrderVendorOnlyAppliesToDirectories(t *testing.T) {
	o := newOrderer([]string{"vendor"})

	got := sortedRels(o, "app.js", "vendor")
	assert.Equal(t, []string{"app.js", "vendor"}, got)
}

func TestOrderNatural(t *testing.T) {
	o := newOrderer(nil)

	got := sortedRels(o, "file10.js", "file2.js", "file1.js")
	assert.Equal(t, []string{"file1.js", "file2.js", "file10.js"}, got)
}

func TestOrderNestedVendor(t *testing.T) {
	o := newOrderer([]string{"vendor"})

	got := sortedRels(o, "javascripts/app/a.js", "javascripts/vendor/b.js", "javascripts/c.js")
	assert.Equal(t, []string{"javascripts/vendor/b.js", "javascripts/app/a.js", "javascripts/c.js"}, got)
}

func TestNaturalLessTieBreak(t *testing.T) {
	assert.True(t, naturalLess("01.js", "1.js") != naturalLess("1.js", "01.js"))
	assert.False(t, naturalLess("a.js", "a.js"))
}

func TestOrderIsInputIndependent(t *testing.T) {
	o := newOrderer([]string{"vendor"})
	paths := []string{
		"vendor/jquery.js", "vendor/backbone.js", "coffeescripts/awesome.coffee",
		"app1.js", "file1.js", "file2.min.js", "file10.js", "a/b/c.js",
	}
	want := sortedRels(o, paths...)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]string(nil), paths...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, sortedRels(o, shuffled...))
	}
}
