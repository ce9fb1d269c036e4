package domain

import "testing"

func TestTableNames(t *testing.T) {
	if got := (Generation{}).TableName(); got != "generations" {
		t.Fatalf("Generation table = %q", got)
	}
	if got := (Profile{}).TableName(); got != "profiles" {
		t.Fatalf("Profile table = %q", got)
	}
	if got := (Idempotency{}).TableName(); got != "idempotency" {
		t.Fatalf("Idempotency table = %q", got)
	}
}

func TestMediaKindValid(t *testing.T) {
	if !KindImage.Valid() || !KindVideo.Valid() {
		t.Fatalf("expected image/video to be valid kinds")
	}
	if MediaKind("audio").Valid() {
		t.Fatalf("unknown kind reported valid")
	}
	if MediaKind("").Valid() {
		t.Fatalf("empty kind reported valid")
	}
}

func TestToolKindFor(t *testing.T) {
	cases := map[Tool]MediaKind{
		ToolTextToImage:  KindImage,
		ToolImageEditing: KindImage,
		ToolFaceSwap:     KindImage,
		ToolTextToVideo:  KindVideo,
		Tool("unknown"):  "",
		Tool(""):         "",
	}
	for tool, want := range cases {
		if got := tool.KindFor(); got != want {
			t.Errorf("KindFor(%q) = %q; want %q", tool, got, want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusProcessing.Terminal() {
		t.Fatalf("pending/processing must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Fatalf("completed/failed must be terminal")
	}
}
