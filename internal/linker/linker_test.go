package linker

import (
	"testing"

	"github.com/xyproto/linkgraph/internal/model"
)

func sym(name string) model.VersionedSymbol {
	return model.VersionedSymbol{Name: name}
}

func withExports(path string, names ...string) *model.ImageSummary {
	img := &model.ImageSummary{
		Path:    path,
		Variant: model.Dynamic,
		Dynamic: &model.DynamicData{},
	}
	for _, n := range names {
		img.Dynamic.Exports = append(img.Dynamic.Exports, model.ExportedSymbol{Symbol: sym(n)})
	}
	return img
}

func TestLinkResolvesAgainstExportingDependency(t *testing.T) {
	libc := withExports("/lib/libc.so.6", "printf", "malloc")
	deps := []*model.ImageSummary{libc}

	imports := []model.ImportedSymbol{{Symbol: sym("printf")}}
	result := Link(imports, deps)

	if result[sym("printf")] != libc {
		t.Fatalf("Link did not resolve printf to libc: %+v", result)
	}
}

func TestLinkLaterDependencyWins(t *testing.T) {
	first := withExports("/lib/first.so", "shared_symbol")
	second := withExports("/lib/second.so", "shared_symbol")
	deps := []*model.ImageSummary{first, second}

	imports := []model.ImportedSymbol{{Symbol: sym("shared_symbol")}}
	result := Link(imports, deps)

	if result[sym("shared_symbol")] != second {
		t.Fatalf("Link resolved to %+v, want the later dependency to win", result[sym("shared_symbol")])
	}
}

func TestLinkLeavesUnmatchedImportsAbsent(t *testing.T) {
	libc := withExports("/lib/libc.so.6", "malloc")
	imports := []model.ImportedSymbol{{Symbol: sym("missing_symbol")}}

	result := Link(imports, []*model.ImageSummary{libc})
	if _, ok := result[sym("missing_symbol")]; ok {
		t.Fatalf("Link produced an entry for an unresolvable symbol: %+v", result)
	}
}

func TestLinkSkipsStaticDependencies(t *testing.T) {
	static := &model.ImageSummary{Variant: model.Static}
	imports := []model.ImportedSymbol{{Symbol: sym("anything")}}

	result := Link(imports, []*model.ImageSummary{static})
	if len(result) != 0 {
		t.Fatalf("Link = %+v, want empty result against a static dependency", result)
	}
}
