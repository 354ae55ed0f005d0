// Package config reads normalizer settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/geo-normalizer/internal/core/model"
)

type LogCfg struct {
	Level   string
	Console bool
	SampleN int
}

type OutputCfg struct {
	Pretty bool
	BBox   bool
}

type Config struct {
	Log        LogCfg
	GeoField   string
	FieldType  model.FieldType
	H3Res      int // negative disables cell annotation
	H3Property string
	DedupByID  bool
	Output     OutputCfg

	// node exporter textfile; empty disables
	MetricsFile string
}

func FromEnv() Config {
	res := getint("H3_RES", -1)
	if res > 15 {
		res = 15
	}

	return Config{
		Log: LogCfg{
			Level:   getenv("LOG_LEVEL", "info"),
			Console: getbool("LOG_CONSOLE", false),
			SampleN: getint("LOG_SAMPLE_N", 0),
		},
		GeoField:   getenv("GEO_FIELD", "location"),
		FieldType:  model.FieldType(strings.ToLower(getenv("GEO_FIELD_TYPE", string(model.FieldGeoPoint)))),
		H3Res:      res,
		H3Property: getenv("H3_PROPERTY", "h3_cell"),
		DedupByID:  getbool("DEDUP_BY_ID", true),
		Output: OutputCfg{
			Pretty: getbool("OUTPUT_PRETTY", false),
			BBox:   getbool("OUTPUT_BBOX", false),
		},
		MetricsFile: getenv("METRICS_FILE", ""),
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}
