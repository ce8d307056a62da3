// Package imagery maps raw property image references to images the client can always render.
//
// References come in several generations: absolute paths into the old bundled assets folder,
// paths into the newer properties_images folder, @assets aliases, and external URLs copied from
// third-party listing sites. Resolve prefers bundled assets and falls back deterministically,
// so the same reference always renders the same picture.
package imagery

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"
)

// AssetBasePath is the URL prefix the bundled property images are served under
const AssetBasePath = "/assets/properties/"

// Asset is a renderable image handle: either a bundled asset or a literal URL
type Asset struct {
	Key     string `json:"key,omitempty"`
	Src     string `json:"src"`
	Bundled bool   `json:"bundled"`
}

// Rule names the resolution rule that produced an asset
type Rule string

const (
	RuleEmpty       Rule = "empty"
	RuleLegacyPath  Rule = "legacy_path"
	RuleBrand       Rule = "brand"
	RuleFolderHash  Rule = "folder_hash"
	RuleAtAssets    Rule = "at_assets"
	RulePlaceholder Rule = "placeholder"
	RuleDomainHash  Rule = "domain_hash"
	RulePassThrough Rule = "pass_through"
)

func bundled(key, file string) Asset {
	return Asset{Key: key, Src: AssetBasePath + file, Bundled: true}
}

var (
	Property01 = bundled("property01", "property-01.jpeg")
	Property02 = bundled("property02", "property-02.jpeg")
	Property03 = bundled("property03", "property-03.jpg")
	Property04 = bundled("property04", "property-04.jpg")
	Property05 = bundled("property05", "property-05.jpeg")
	Property06 = bundled("property06", "property-06.jpg")
	Property07 = bundled("property07", "property-07.jpeg")
	Property08 = bundled("property08", "property-08.jpg")

	CadenzaFacade01 = bundled("cadenzaFacade01", "cadenza-facade-01.webp")
	CadenzaFacade02 = bundled("cadenzaFacade02", "cadenza-facade-02.webp")
	CadenzaFacade03 = bundled("cadenzaFacade03", "cadenza-facade-03.webp")

	// DefaultAsset replaces placeholder references and empty input
	DefaultAsset = Property01
)

// FallbackAssets is the fixed list indexed by the character-sum hash
var FallbackAssets = [8]Asset{
	Property01, Property02, Property03, Property04,
	Property05, Property06, Property07, Property08,
}

type pathRule struct {
	pattern string
	asset   Asset
}

// legacyPaths is checked in order, before any folder or hash rule
var legacyPaths = buildLegacyPaths()

func buildLegacyPaths() []pathRule {
	rules := []pathRule{
		{"/src/assets/properties/cadenza-facade-01.webp", CadenzaFacade01},
		{"/src/assets/properties/cadenza-facade-02.webp", CadenzaFacade02},
		{"/src/assets/properties/cadenza-facade-03.webp", CadenzaFacade03},
	}
	for i, asset := range FallbackAssets {
		for _, ext := range []string{"jpeg", "jpg"} {
			rules = append(rules, pathRule{
				pattern: fmt.Sprintf("/src/assets/properties/property-%02d.%s", i+1, ext),
				asset:   asset,
			})
		}
	}
	return rules
}

const (
	newFolderMarker = "/src/properties_images/"
)

var brandMarkers = []string{"candenza", "CAD_EXT-FACADE"}

// brandRules select among the façade variants; no match means façade 01
var brandRules = []pathRule{
	{"FACADE-02", CadenzaFacade02},
	{"facade-02", CadenzaFacade02},
	{"FACADE-03", CadenzaFacade03},
	{"facade-03", CadenzaFacade03},
	{"FACADE-01", CadenzaFacade01},
	{"facade-01", CadenzaFacade01},
}

var atAssetPaths = []pathRule{
	{"@assets/cadenza-facade-01.webp", CadenzaFacade01},
	{"@assets/cadenza-facade-02.webp", CadenzaFacade02},
	{"@assets/cadenza-facade-03.webp", CadenzaFacade03},
}

var placeholderPattern = regexp.MustCompile(`building-0\d\.webp`)

// UnreliableDomains host images that are known to disappear
var UnreliableDomains = []string{
	"shinebebright.com",
	"cadenzaresidences.com",
	"propertypro.ug",
	"lamudi.co.ug",
	"jiji.ug",
}

// Resolve maps a raw image reference to a renderable asset. It never fails.
func Resolve(ref string) Asset {
	asset, _ := ResolveWithRule(ref)
	return asset
}

// ResolveWithRule is Resolve that also reports which rule fired
func ResolveWithRule(ref string) (Asset, Rule) {
	if strings.TrimSpace(ref) == "" {
		return DefaultAsset, RuleEmpty
	}

	if asset, ok := matchFirst(ref, legacyPaths); ok {
		return asset, RuleLegacyPath
	}

	if strings.Contains(ref, newFolderMarker) {
		if hasBrandMarker(ref) {
			if asset, ok := matchFirst(ref, brandRules); ok {
				return asset, RuleBrand
			}
			return CadenzaFacade01, RuleBrand
		}
		return Fallback(ref), RuleFolderHash
	}

	if asset, ok := matchFirst(ref, atAssetPaths); ok {
		return asset, RuleAtAssets
	}

	if placeholderPattern.MatchString(ref) {
		return DefaultAsset, RulePlaceholder
	}

	for _, domain := range UnreliableDomains {
		if strings.Contains(ref, domain) {
			return Fallback(ref), RuleDomainHash
		}
	}

	return Asset{Src: ref}, RulePassThrough
}

// ResolveAll resolves every reference, keeping order
func ResolveAll(refs []string) []Asset {
	assets := make([]Asset, len(refs))
	for i, ref := range refs {
		assets[i] = Resolve(ref)
	}
	return assets
}

// Primary resolves the first reference of a gallery, or the default asset for an empty one
func Primary(refs []string) Asset {
	if len(refs) == 0 {
		return DefaultAsset
	}
	return Resolve(refs[0])
}

// Fallback picks a fallback asset from the character-code sum of ref.
// Equal sums modulo the list size collide on the same asset.
func Fallback(ref string) Asset {
	return FallbackAssets[CharSum(ref)%len(FallbackAssets)]
}

// CharSum adds the UTF-16 code units of s, the way browsers index string characters
func CharSum(s string) int {
	sum := 0
	for _, u := range utf16.Encode([]rune(s)) {
		sum += int(u)
	}
	return sum
}

func matchFirst(ref string, rules []pathRule) (Asset, bool) {
	for _, r := range rules {
		if strings.Contains(ref, r.pattern) {
			return r.asset, true
		}
	}
	return Asset{}, false
}

func hasBrandMarker(ref string) bool {
	for _, marker := range brandMarkers {
		if strings.Contains(ref, marker) {
			return true
		}
	}
	return false
}
