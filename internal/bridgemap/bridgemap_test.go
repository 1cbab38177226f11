package bridgemap

import (
	"errors"
	"slices"
	"testing"
)

func TestParseInterfaceMappings(t *testing.T) {
	t.Parallel()

	ms, err := Parse("00:00:5E:00:00:42:br-internet  eth1:br-provider\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Mappings{
		{Key: "00:00:5e:00:00:42", Kind: KeyMAC, Bridge: "br-internet"},
		{Key: "eth1", Kind: KeyName, Bridge: "br-provider"},
	}
	if !slices.Equal(ms, want) {
		t.Fatalf("expected %+v, got %+v", want, ms)
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "\t\n"} {
		ms, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if len(ms) != 0 {
			t.Fatalf("expected no mappings for %q, got %+v", raw, ms)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		raw  string
		want error
	}{
		{raw: "physnet1", want: ErrMalformedMapping},
		{raw: ":br-provider", want: ErrMalformedMapping},
		{raw: "physnet1:", want: ErrMalformedMapping},
		{raw: "physnet1:br-a physnet1:br-b", want: ErrDuplicateKey},
		{raw: "00:00:5e:00:00:42:br-a 00:00:5E:00:00:42:br-b", want: ErrDuplicateKey},
	}

	for _, tc := range testCases {
		if _, err := Parse(tc.raw); !errors.Is(err, tc.want) {
			t.Fatalf("expected %v for %q, got %v", tc.want, tc.raw, err)
		}
	}
}

func TestMappingsRendering(t *testing.T) {
	t.Parallel()

	ms, err := Parse("physnet1:br-internet physnet2:br-provider physnet3:br-internet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ms.ExternalIDValue(); got != "physnet1:br-internet,physnet2:br-provider,physnet3:br-internet" {
		t.Fatalf("unexpected external id value %q", got)
	}
	if got := ms.String(); got != "physnet1:br-internet physnet2:br-provider physnet3:br-internet" {
		t.Fatalf("unexpected string form %q", got)
	}
	if got := ms.Bridges(); !slices.Equal(got, []string{"br-internet", "br-provider"}) {
		t.Fatalf("unexpected bridges %v", got)
	}
}

func TestLookupNormalisesMAC(t *testing.T) {
	t.Parallel()

	ms, err := Parse("00:00:5e:00:00:51:br-provider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bridge, ok := ms.Lookup("00:00:5E:00:00:51"); !ok || bridge != "br-provider" {
		t.Fatalf("expected br-provider, got %q (%v)", bridge, ok)
	}
	if _, ok := ms.Lookup("eth0"); ok {
		t.Fatalf("expected eth0 to be unmapped")
	}
}

func TestUnbound(t *testing.T) {
	t.Parallel()

	interfaces, err := Parse("00:00:5e:00:00:42:br-internet 00:00:5e:00:00:51:br-provider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	networks, err := Parse("physnet1:br-provider")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := Unbound(interfaces, networks)
	if len(got) != 1 || got[0].Bridge != "br-internet" {
		t.Fatalf("expected br-internet to be unbound, got %+v", got)
	}
}
