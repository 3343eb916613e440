package assets

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// orderer sorts slash-separated relative paths into load order: depth first,
// subdirectories before the files next to them, library-tier directories
// before other subdirectories, natural order otherwise. Because it only looks
// at the paths, any subset of a tree sorts the same way the full walk would.
type orderer struct {
	vendors map[string]bool
}

func newOrderer(vendors []string) orderer {
	o := orderer{vendors: make(map[string]bool, len(vendors))}
	for _, v := range vendors {
		o.vendors[strings.ToLower(v)] = true
	}
	return o
}

func (o orderer) isVendor(dir string) bool {
	return o.vendors[strings.ToLower(dir)]
}

// less reports whether path a loads before path b.
func (o orderer) less(a, b string) bool {
	sa := strings.Split(a, "/")
	sb := strings.Split(b, "/")

	for i := 0; i < len(sa) && i < len(sb); i++ {
		if sa[i] == sb[i] {
			continue
		}

		aDir := i < len(sa)-1
		bDir := i < len(sb)-1
		if aDir != bDir {
			return aDir
		}

		if aDir {
			av, bv := o.isVendor(sa[i]), o.isVendor(sb[i])
			if av != bv {
				return av
			}
		}

		return naturalLess(sa[i], sb[i])
	}

	return len(sa) < len(sb)
}

// naturalLess orders "file2" before "file10"; names natural order considers
// equal ("01" and "1") fall back to byte order.
func naturalLess(a, b string) bool {
	if natural.Less(a, b) {
		return true
	}
	if natural.Less(b, a) {
		return false
	}
	return a < b
}

func (o orderer) sort(files []AssetFile) {
	sort.SliceStable(files, func(i, j int) bool {
		return o.less(files[i].Rel, files[j].Rel)
	})
}
