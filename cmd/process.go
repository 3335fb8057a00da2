package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/enviducate/enviducate/internal/ingest"
	"github.com/enviducate/enviducate/internal/model"
	"github.com/enviducate/enviducate/internal/pipeline"
)

var (
	processOutDir   string
	processCategory string
	processBudget   int
)

var processCmd = &cobra.Command{
	Use:   "process <file-or-dir>...",
	Short: "Process GeoJSON and shapefile inputs into result artifacts",
	Long:  "Walks the given paths for .geojson, .json, and .shp files, runs each through extraction, sampling, and synthesis, and writes one EnvironmentalResult JSON per input to the output directory.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := os.MkdirAll(processOutDir, 0o755); err != nil {
			return eris.Wrapf(err, "create output dir %s", processOutDir)
		}

		inputs, err := collectInputs(args)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return eris.New("no .geojson, .json, or .shp files found")
		}

		var failed int
		for _, path := range inputs {
			if err := processFile(cmd, env, path); err != nil {
				zap.L().Error("process file failed", zap.String("path", path), zap.Error(err))
				failed++
			}
		}

		zap.L().Info("processing complete",
			zap.Int("processed", len(inputs)-failed),
			zap.Int("failed", failed),
		)
		if failed > 0 {
			return eris.Errorf("%d of %d inputs failed", failed, len(inputs))
		}
		return nil
	},
}

func init() {
	processCmd.Flags().StringVarP(&processOutDir, "out", "o", "results", "output directory for result JSON files")
	processCmd.Flags().StringVar(&processCategory, "category", "", "force a category instead of classifying")
	processCmd.Flags().IntVar(&processBudget, "budget", 0, "sample budget override (default from config)")
	rootCmd.AddCommand(processCmd)
}

// collectInputs expands the argument paths into the sorted list of geodata
// files to process.
func collectInputs(paths []string) ([]string, error) {
	var inputs []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, eris.Wrapf(err, "stat %s", root)
		}

		if !info.IsDir() {
			if isGeodataFile(root) {
				inputs = append(inputs, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isGeodataFile(path) {
				inputs = append(inputs, path)
			}
			return nil
		})
		if err != nil {
			return nil, eris.Wrapf(err, "walk %s", root)
		}
	}
	return inputs, nil
}

func isGeodataFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json", ".shp":
		return true
	}
	return false
}

func processFile(cmd *cobra.Command, env *env, path string) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	req := pipeline.ProcessRequest{
		Name:     name,
		Category: model.Category(processCategory),
		Budget:   processBudget,
	}

	if strings.EqualFold(filepath.Ext(path), ".shp") {
		records, err := ingest.ReadShapefile(path)
		if err != nil {
			return err
		}
		req.Records = records
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "read %s", path)
		}
		req.Data = data
	}

	result, err := env.Pipeline.ProcessCollection(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := filepath.Join(processOutDir, name+".result.json")
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal result")
	}
	if err := os.WriteFile(out, payload, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", out)
	}

	zap.L().Info("wrote result",
		zap.String("input", path),
		zap.String("output", out),
		zap.String("category", string(result.Category)),
	)
	return nil
}
