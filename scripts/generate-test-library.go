//go:build ignore

// Package main generates a synthetic PDF library for benchmarking index
// builds. The files are PDF stubs; only their names and folders matter
// to the metadata extractor.
//
// Usage: go run scripts/generate-test-library.go -files 2000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numFiles  = flag.Int("files", 2000, "Number of files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Word pools for plausible bilingual paper titles.
var (
	zhTopics = []string{
		"黄土高原", "青藏高原", "华北平原", "黄河流域", "长江流域",
		"干旱区", "半干旱区", "流域尺度", "区域尺度",
	}
	zhSubjects = []string{
		"径流", "蒸散发", "物候", "植被覆盖", "土壤水分",
		"降水变化", "气温变化", "碳通量", "水文过程", "侵蚀产沙",
	}
	zhMethods = []string{
		"归因分析", "趋势分析", "模拟研究", "遥感监测", "定量评估",
		"时空变化特征", "响应机制研究", "综述",
	}
	enTopics = []string{
		"the Loess Plateau", "the Tibetan Plateau", "dryland basins",
		"northern China", "the Yellow River basin", "semiarid regions",
	}
	enSubjects = []string{
		"runoff", "evapotranspiration", "phenology", "vegetation cover",
		"soil moisture", "precipitation", "carbon flux", "streamflow",
	}
	enMethods = []string{
		"trends and attribution", "a modeling study", "remote sensing evidence",
		"spatiotemporal variation", "a quantitative assessment", "a review",
	}
	folders = []string{
		"", "水文", "物候", "植被", "气候", "hydrology", "phenology", "climate",
	}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d files in %s...\n", *numFiles, *outputDir)

	generated := 0
	for i := 0; i < *numFiles; i++ {
		var name string
		if i%2 == 0 {
			name = fmt.Sprintf("%s%s%s%d.pdf",
				pick(rng, zhTopics), pick(rng, zhSubjects), pick(rng, zhMethods), 2000+rng.Intn(26))
		} else {
			name = fmt.Sprintf("%s in %s %s %d.pdf",
				pick(rng, enSubjects), pick(rng, enTopics), pick(rng, enMethods), 2000+rng.Intn(26))
		}

		dir := filepath.Join(*outputDir, pick(rng, folders))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating folder: %v\n", err)
			os.Exit(1)
		}

		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			continue
		}
		generated++
	}

	fmt.Printf("Generated %d files successfully.\n", generated)
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}
