package core

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestPipelineSubmitAfterClose(t *testing.T) {
	registry := NewRegistry()
	p := NewPipeline(newMemStore(), registry, testLogger())

	c := NewClient("s1", 1, "alice")
	registry.Join(c, "general")

	if cerr := p.Submit(c, "general", "before close", ""); cerr != nil {
		t.Fatalf("submit: %v", cerr)
	}
	p.Close()

	cerr := p.Submit(c, "general", "after close", "")
	if cerr == nil || cerr.Code != ErrCodeBadRequest {
		t.Fatalf("expected rejection after close, got %v", cerr)
	}
}

func TestPipelineCloseRacesSubmit(t *testing.T) {
	registry := NewRegistry()
	p := NewPipeline(newMemStore(), registry, testLogger())

	const senders = 8
	clients := make([]*Client, senders)
	for i := range clients {
		c := NewClient(fmt.Sprintf("s%d", i), int64(i), "user")
		registry.Join(c, "general")
		clients[i] = c
	}

	// Hammer Submit while Close runs. Every call must either land or come
	// back rejected; a send on a closed queue would panic the sender.
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			for {
				if cerr := p.Submit(c, "general", "payload", ""); cerr != nil {
					return
				}
			}
		}(c)
	}

	time.Sleep(10 * time.Millisecond)
	p.Close()
	wg.Wait()
}
