//go:build property
// +build property

package config

import (
	"regexp"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestConfigurationProperties tests configuration loading and validation properties
func TestConfigurationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: relative, plain directory names are always accepted
	properties.Property("plain relative paths validate", prop.ForAll(
		func(path string) bool {
			_, err := FromProvider(MapProvider{KeyPath: path})
			return err == nil
		},
		gen.RegexMatch(`^[a-z][a-z0-9_]{0,10}(/[a-z][a-z0-9_]{0,10}){0,3}$`),
	))

	// Property: any path escaping the project root is rejected
	properties.Property("traversal is rejected", prop.ForAll(
		func(suffix string) bool {
			_, err := FromProvider(MapProvider{KeyPath: "../" + suffix})
			return err != nil
		},
		gen.RegexMatch(`^[a-z]{1,10}$`),
	))

	// Property: quoted literal ignores always compile and round-trip
	properties.Property("literal ignore patterns compile", prop.ForAll(
		func(segment string) bool {
			pattern := regexp.QuoteMeta("/" + segment + "/")
			cfg, err := FromProvider(MapProvider{KeyIgnores: []string{pattern}})
			if err != nil {
				return false
			}
			res := cfg.IgnoreRegexps()
			return len(res) == 1 && res[0].MatchString("/x/"+segment+"/y.js")
		},
		gen.RegexMatch(`^[a-zA-Z0-9.+*?()-]{1,12}$`),
	))

	// Property: loading is deterministic
	properties.Property("loading is deterministic", prop.ForAll(
		func(minify bool, markers []string) bool {
			values := MapProvider{KeyMinify: minify, KeyCompressed: markers}
			a, errA := FromProvider(values)
			b, errB := FromProvider(values)
			if (errA == nil) != (errB == nil) {
				return false
			}
			if errA != nil {
				return true
			}
			return a.Minify == b.Minify && len(a.Compressed) == len(b.Compressed)
		},
		gen.Bool(),
		gen.SliceOfN(3, gen.RegexMatch(`^[.-][a-z]{1,4}[.]$`)),
	))

	properties.TestingRun(t)
}
