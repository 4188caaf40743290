package model

import (
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "video+audio", want: ModeVideoAudio},
		{in: "VIDEO-ONLY", want: ModeVideoOnly},
		{in: " audio-only ", want: ModeAudioOnly},
		{in: "", want: ModeVideoAudio},
		{in: "best", wantErr: true},
		{in: "audio", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Fatalf("ParseMode(%q) err = %v, want ErrConfiguration", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(true, true); got != KindCombined {
		t.Errorf("KindOf(true,true) = %q", got)
	}
	if got := KindOf(true, false); got != KindVideoOnly {
		t.Errorf("KindOf(true,false) = %q", got)
	}
	if got := KindOf(false, true); got != KindAudioOnly {
		t.Errorf("KindOf(false,true) = %q", got)
	}
	if got := KindOf(false, false); got != "" {
		t.Errorf("KindOf(false,false) = %q, want empty", got)
	}
}

func TestDownloadJob_Validate(t *testing.T) {
	combined := &StreamDescriptor{ID: "18", Kind: KindCombined}
	video := &StreamDescriptor{ID: "137", Kind: KindVideoOnly}
	audio := &StreamDescriptor{ID: "140", Kind: KindAudioOnly}

	tests := []struct {
		name    string
		job     DownloadJob
		wantErr bool
	}{
		{name: "single combined", job: DownloadJob{Single: combined}},
		{name: "split pair", job: DownloadJob{Video: video, Audio: audio}},
		{name: "combined plus audio", job: DownloadJob{Single: combined, Audio: audio}, wantErr: true},
		{name: "empty", job: DownloadJob{}, wantErr: true},
		{name: "pair with wrong kinds", job: DownloadJob{Video: combined, Audio: audio}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestItemError_Unwrap(t *testing.T) {
	err := NewItemError("https://youtu.be/x", "download", ErrTransfer)
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("errors.Is(ItemError, ErrTransfer) = false")
	}
	want := "download [https://youtu.be/x]: transfer failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
