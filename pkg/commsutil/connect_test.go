package commsutil

import (
	"testing"
	"time"
)

const connectTestPrefix = "commsutil:connect_test"

func TestConnect_InvalidURL(t *testing.T) {
	nc, err := Connect("invalid://not-a-nats-server", "test-client", ConnectOpts{Timeout: time.Second, MaxReconnects: -1})
	if err == nil {
		if nc != nil {
			nc.Close()
		}
		t.Fatalf("%s - expected error for invalid URL", connectTestPrefix)
	}
	if nc != nil {
		t.Errorf("%s - expected nil connection on error", connectTestPrefix)
	}
}

func TestConnectOpts_Defaults(t *testing.T) {
	got := ConnectOpts{}.withDefaults()
	if got.Timeout != 10*time.Second {
		t.Errorf("%s - Timeout = %v, want 10s", connectTestPrefix, got.Timeout)
	}
	if got.ReconnectWait != 2*time.Second {
		t.Errorf("%s - ReconnectWait = %v, want 2s", connectTestPrefix, got.ReconnectWait)
	}
	if got.MaxReconnects != 60 {
		t.Errorf("%s - MaxReconnects = %d, want 60", connectTestPrefix, got.MaxReconnects)
	}

	kept := ConnectOpts{MaxReconnects: -1}.withDefaults()
	if kept.MaxReconnects != -1 {
		t.Errorf("%s - MaxReconnects = %d, want -1 (unlimited kept)", connectTestPrefix, kept.MaxReconnects)
	}
}
