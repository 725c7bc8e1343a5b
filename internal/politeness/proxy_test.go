package politeness

import "testing"

func TestProxyPool_RoundRobin(t *testing.T) {
	p := NewProxyPool(ProxyPoolConfig{})
	if err := p.Add("proxy1.example:8080", "proxy2.example:8080"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	first := p.Next()
	second := p.Next()
	third := p.Next()
	if first.String() == second.String() {
		t.Fatalf("expected round-robin to alternate, got %s then %s", first, second)
	}
	if first.String() != third.String() {
		t.Errorf("expected cycle back to first proxy, got %s", third)
	}
}

func TestProxyPool_DisablesAfterMaxFailures(t *testing.T) {
	p := NewProxyPool(ProxyPoolConfig{MaxFailures: 2})
	if err := p.Add("proxy1.example:8080"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	u := p.Next()

	if err := p.MarkFailure(u); err != nil {
		t.Fatalf("MarkFailure: %v", err)
	}
	if err := p.MarkFailure(u); err != nil {
		t.Fatalf("MarkFailure: %v", err)
	}

	if got := p.Next(); got != nil {
		t.Errorf("expected nil after disabling the only proxy, got %s", got)
	}
}

func TestProxyPool_EmptyPoolReturnsNil(t *testing.T) {
	p := NewProxyPool(ProxyPoolConfig{})
	if got := p.Next(); got != nil {
		t.Errorf("expected nil from empty pool, got %s", got)
	}
}
