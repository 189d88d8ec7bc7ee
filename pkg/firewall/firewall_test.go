package firewall

import (
	"testing"

	"github.com/arangogutierrez/toolfirewall/pkg/firewallcfg"
	"github.com/arangogutierrez/toolfirewall/pkg/policy"
	"github.com/arangogutierrez/toolfirewall/pkg/ratelimit"
)

// newTestPipeline builds a Pipeline against an in-memory policy and a
// temp-dir state store, with a caller-controlled clock so approval and
// rate-limit tests can advance time deterministically.
func newTestPipeline(t *testing.T, yaml string, rules []ratelimit.Rule) *Pipeline {
	t.Helper()
	res := policy.Load("", []byte(yaml))
	if res.LoadErr != nil {
		t.Fatalf("unexpected load error: %v", res.LoadErr)
	}
	desc := &firewallcfg.Descriptor{
		StateDir:   t.TempDir(),
		RateLimits: rules,
	}
	p := New(desc, func() *policy.Policy { return res.Policy })
	p.clock = func() int64 { return 1000 }
	return p
}

func setClock(p *Pipeline, ms int64) {
	p.clock = func() int64 { return ms }
}
