package retrieval

import "testing"

func TestTopHitsOrdersAndTruncates(t *testing.T) {
	hits := []Hit{
		{Index: 0, Score: 0.1},
		{Index: 1, Score: 0.9},
		{Index: 2, Score: 0.5},
		{Index: 3, Score: 0.9},
	}

	got := topHits(hits, 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	// Equal scores keep the lower chunk position first.
	if got[0].Index != 1 || got[1].Index != 3 || got[2].Index != 2 {
		t.Fatalf("order = %v, want [1 3 2]", got)
	}
}

func TestTopHitsZeroKeepsAll(t *testing.T) {
	hits := []Hit{{Index: 0, Score: 1}, {Index: 1, Score: 2}}
	if got := topHits(hits, 0); len(got) != 2 {
		t.Fatalf("len = %d, want 2 with k=0", len(got))
	}
}

func TestFuseRRFBothListsOutrankSingleList(t *testing.T) {
	dense := []Hit{{Index: 7, Score: 0.99}, {Index: 3, Score: 0.5}}
	sparse := []Hit{{Index: 3, Score: 12.0}, {Index: 5, Score: 4.0}}

	fused := fuseRRF(dense, sparse, 60)
	if fused[0].Index != 3 {
		t.Fatalf("fused[0].Index = %d, want 3 (present in both lists)", fused[0].Index)
	}

	// Raw scores must not leak into the fused score; only ranks count.
	wantTop := 1.0/62.0 + 1.0/61.0
	if diff := fused[0].Score - wantTop; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("fused[0].Score = %v, want %v", fused[0].Score, wantTop)
	}
}

func TestFuseRRFDeterministicOnTies(t *testing.T) {
	dense := []Hit{{Index: 2}, {Index: 9}}
	sparse := []Hit{{Index: 9}, {Index: 2}}

	for i := 0; i < 5; i++ {
		fused := fuseRRF(dense, sparse, 60)
		// Both chunks accrue the same total; the lower position wins.
		if fused[0].Index != 2 || fused[1].Index != 9 {
			t.Fatalf("run %d: order = %v, want [2 9]", i, fused)
		}
	}
}

func TestFuseRRFHandlesEmptyLists(t *testing.T) {
	sparse := []Hit{{Index: 1}, {Index: 0}}
	fused := fuseRRF(nil, sparse, 60)
	if len(fused) != 2 {
		t.Fatalf("len = %d, want 2", len(fused))
	}
	if fused[0].Index != 1 {
		t.Fatalf("fused[0].Index = %d, want 1 (rank order preserved)", fused[0].Index)
	}

	if got := fuseRRF(nil, nil, 60); len(got) != 0 {
		t.Fatalf("fusing empty lists returned %v", got)
	}
}
