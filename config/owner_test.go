package config

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestOwner_FirstClaimWins(t *testing.T) {
	o := &Owner{}
	o.SetFilePath(filepath.Join(t.TempDir(), "owner.json"))

	ok, err := o.Claim(100, "alice")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !ok {
		t.Fatal("first claim should succeed")
	}

	ok, err = o.Claim(200, "bob")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if ok {
		t.Error("second user's claim should be rejected")
	}

	if !o.IsOwner(100) {
		t.Error("first claimant should be the owner")
	}
	if o.IsOwner(200) {
		t.Error("second claimant should not be the owner")
	}
}

func TestOwner_RepeatClaimByOwner(t *testing.T) {
	o := &Owner{}
	o.SetFilePath(filepath.Join(t.TempDir(), "owner.json"))

	if ok, _ := o.Claim(100, "alice"); !ok {
		t.Fatal("first claim should succeed")
	}
	if ok, _ := o.Claim(100, "alice"); !ok {
		t.Error("repeat claim by existing owner should succeed")
	}
}

func TestOwner_UnclaimedState(t *testing.T) {
	o := &Owner{}
	if o.Claimed() {
		t.Error("fresh owner should be unclaimed")
	}
	if o.IsOwner(0) {
		t.Error("zero user ID should never be the owner")
	}
}

func TestOwner_ConcurrentClaims(t *testing.T) {
	o := &Owner{}
	o.SetFilePath(filepath.Join(t.TempDir(), "owner.json"))

	const n = 20
	results := make([]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := o.Claim(int64(i+1), "user")
			if err != nil {
				t.Errorf("Claim: %v", err)
				return
			}
			results[i] = ok
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, ok := range results {
		if ok {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("exactly one concurrent claim should win, got %d", winners)
	}
}
