package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizer_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	n := NewNormalizer(reg)

	n.AddFeatures(3)
	n.AddFeatures(0)
	n.AddDropped(2)
	n.IncError("encoding")
	n.IncError("encoding")
	n.IncError("")
	n.ObserveEnvelopes(1)
	n.ObserveEnvelopes(2)

	if got := testutil.ToFloat64(n.features); got != 3 {
		t.Fatalf("features=%v want 3", got)
	}
	if got := testutil.ToFloat64(n.dropped); got != 2 {
		t.Fatalf("dropped=%v want 2", got)
	}
	if got := testutil.ToFloat64(n.errors.WithLabelValues("encoding")); got != 2 {
		t.Fatalf("errors{encoding}=%v want 2", got)
	}
	if got := testutil.ToFloat64(n.errors.WithLabelValues("other")); got != 1 {
		t.Fatalf("errors{other}=%v want 1", got)
	}
	if got := testutil.ToFloat64(n.envelopes.WithLabelValues("false")); got != 1 {
		t.Fatalf("envelopes{split=false}=%v want 1", got)
	}
	if got := testutil.ToFloat64(n.envelopes.WithLabelValues("true")); got != 2 {
		t.Fatalf("envelopes{split=true}=%v want 2", got)
	}
}

func TestNormalizer_NilIsNoop(t *testing.T) {
	var n *Normalizer
	n.AddFeatures(1)
	n.AddDropped(1)
	n.IncError("x")
	n.ObserveEnvelopes(2)
}

func TestProvider_WriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geonorm.prom")
	p := Init(Config{TextfilePath: path, Build: BuildInfo{Version: "1.2.3"}})
	n := NewNormalizer(p.Registerer())
	n.AddFeatures(7)

	if err := p.WriteTextfile(); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	body := string(b)
	for _, want := range []string{
		"geonorm_features_total 7",
		`app_build_info{build_date="",revision="",version="1.2.3"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("textfile missing %q:\n%s", want, body)
		}
	}
}

func TestProvider_WriteTextfileDisabled(t *testing.T) {
	p := Init(Config{})
	if err := p.WriteTextfile(); err != nil {
		t.Fatalf("WriteTextfile without path: %v", err)
	}
	mfs, err := p.reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "app_build_info" {
			found = true
			if v := mf.GetMetric()[0].GetLabel(); len(v) == 0 {
				t.Fatalf("build info without labels")
			}
		}
	}
	if !found {
		t.Fatalf("app_build_info not registered")
	}
}
