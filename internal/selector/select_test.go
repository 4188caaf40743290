package selector

import (
	"errors"
	"testing"

	"vidbatch/internal/model"
)

func audio(id string, bitrate int) model.StreamDescriptor {
	return model.StreamDescriptor{ID: id, Kind: model.KindAudioOnly, Bitrate: bitrate, Container: "m4a", HasAudio: true}
}

func video(id string, height int) model.StreamDescriptor {
	return model.StreamDescriptor{ID: id, Kind: model.KindVideoOnly, Height: height, Container: "mp4", HasVideo: true}
}

func combined(id string, height int) model.StreamDescriptor {
	return model.StreamDescriptor{ID: id, Kind: model.KindCombined, Height: height, Container: "mp4", HasVideo: true, HasAudio: true}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		streams    []model.StreamDescriptor
		mode       model.Mode
		wantSingle string
		wantVideo  string
		wantAudio  string
		wantErr    error
	}{
		{
			name:       "audio-only picks max bitrate",
			streams:    []model.StreamDescriptor{audio("139", 48000), audio("140", 128000), video("137", 1080), audio("251", 96000)},
			mode:       model.ModeAudioOnly,
			wantSingle: "140",
		},
		{
			name:       "audio-only tie keeps first seen",
			streams:    []model.StreamDescriptor{audio("a", 128000), audio("b", 128000)},
			mode:       model.ModeAudioOnly,
			wantSingle: "a",
		},
		{
			name:    "audio-only without audio streams",
			streams: []model.StreamDescriptor{combined("18", 360), video("137", 1080)},
			mode:    model.ModeAudioOnly,
			wantErr: model.ErrNoSuitableFormat,
		},
		{
			name:       "video-only picks max resolution",
			streams:    []model.StreamDescriptor{video("136", 720), video("137", 1080), combined("22", 1440), video("135", 480)},
			mode:       model.ModeVideoOnly,
			wantSingle: "137",
		},
		{
			name:    "video-only ignores combined streams",
			streams: []model.StreamDescriptor{combined("18", 360)},
			mode:    model.ModeVideoOnly,
			wantErr: model.ErrNoSuitableFormat,
		},
		{
			name:      "video+audio prefers split when higher resolution",
			streams:   []model.StreamDescriptor{combined("18", 360), video("137", 1080), audio("140", 128000)},
			mode:      model.ModeVideoAudio,
			wantVideo: "137",
			wantAudio: "140",
		},
		{
			name:       "video+audio keeps combined on equal resolution",
			streams:    []model.StreamDescriptor{combined("22", 720), video("136", 720), audio("140", 128000)},
			mode:       model.ModeVideoAudio,
			wantSingle: "22",
		},
		{
			name:       "video+audio keeps combined when no audio-only stream",
			streams:    []model.StreamDescriptor{combined("18", 360), video("137", 1080)},
			mode:       model.ModeVideoAudio,
			wantSingle: "18",
		},
		{
			name:      "video+audio uses pair when no combined stream",
			streams:   []model.StreamDescriptor{video("137", 1080), audio("140", 128000)},
			mode:      model.ModeVideoAudio,
			wantVideo: "137",
			wantAudio: "140",
		},
		{
			name:    "video+audio with only video-only streams",
			streams: []model.StreamDescriptor{video("137", 1080)},
			mode:    model.ModeVideoAudio,
			wantErr: model.ErrNoSuitableFormat,
		},
		{
			name:    "video+audio with nothing",
			streams: nil,
			mode:    model.ModeVideoAudio,
			wantErr: model.ErrNoSuitableFormat,
		},
		{
			name:    "unknown mode",
			streams: []model.StreamDescriptor{combined("18", 360)},
			mode:    model.Mode("best"),
			wantErr: model.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Select(tt.streams, tt.mode)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Select() err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() unexpected error: %v", err)
			}
			if tt.wantSingle != "" {
				if p.Single == nil || p.Single.ID != tt.wantSingle {
					t.Fatalf("Single = %+v, want %s", p.Single, tt.wantSingle)
				}
				if p.Video != nil || p.Audio != nil {
					t.Errorf("single plan must not carry split tracks: %+v", p)
				}
				return
			}
			if !p.Split() {
				t.Fatalf("expected split plan, got %+v", p)
			}
			if p.Single != nil {
				t.Errorf("split plan must not carry a single stream")
			}
			if p.Video.ID != tt.wantVideo || p.Audio.ID != tt.wantAudio {
				t.Errorf("pair = %s+%s, want %s+%s", p.Video.ID, p.Audio.ID, tt.wantVideo, tt.wantAudio)
			}
		})
	}
}

// Properties over a small generated family of stream sets.
func TestSelect_Properties(t *testing.T) {
	heights := []int{0, 144, 360, 720, 1080, 2160}
	bitrates := []int{0, 48000, 128000, 160000}

	for _, ch := range heights {
		for _, vh := range heights {
			for _, ab := range bitrates {
				var streams []model.StreamDescriptor
				if ch > 0 {
					streams = append(streams, combined("c", ch))
				}
				if vh > 0 {
					streams = append(streams, video("v", vh))
				}
				if ab > 0 {
					streams = append(streams, audio("a1", ab/2), audio("a2", ab))
				}

				p, err := Select(streams, model.ModeVideoAudio)
				hasPair := vh > 0 && ab > 0
				switch {
				case hasPair && vh > ch:
					if err != nil || !p.Split() {
						t.Errorf("c=%d v=%d a=%d: want split plan, got %+v err=%v", ch, vh, ab, p, err)
					}
				case ch > 0:
					if err != nil || p.Single == nil || p.Single.ID != "c" {
						t.Errorf("c=%d v=%d a=%d: want combined, got %+v err=%v", ch, vh, ab, p, err)
					}
				default:
					if !errors.Is(err, model.ErrNoSuitableFormat) {
						t.Errorf("c=%d v=%d a=%d: want ErrNoSuitableFormat, got %v", ch, vh, ab, err)
					}
				}

				if ab > 0 {
					pa, err := Select(streams, model.ModeAudioOnly)
					if err != nil || pa.Single.ID != "a2" {
						t.Errorf("audio-only: want a2, got %+v err=%v", pa, err)
					}
				}
			}
		}
	}
}

func TestSelect_DoesNotAliasInput(t *testing.T) {
	streams := []model.StreamDescriptor{audio("140", 128000)}
	p, err := Select(streams, model.ModeAudioOnly)
	if err != nil {
		t.Fatal(err)
	}
	p.Single.ID = "changed"
	if streams[0].ID != "140" {
		t.Errorf("Select returned a pointer into the input slice")
	}
}

func TestFilterByKind(t *testing.T) {
	streams := []model.StreamDescriptor{audio("a", 1), video("v1", 720), audio("b", 2), video("v2", 1080)}
	got := FilterByKind(streams, model.KindVideoOnly)
	if len(got) != 2 || got[0].ID != "v1" || got[1].ID != "v2" {
		t.Errorf("FilterByKind(video-only) = %+v", got)
	}
	if got := FilterByKind(streams, model.KindCombined); len(got) != 0 {
		t.Errorf("FilterByKind(combined) = %+v, want empty", got)
	}
}

func TestMergedContainer(t *testing.T) {
	tests := []struct {
		v, a, want string
	}{
		{"mp4", "m4a", "mp4"},
		{"webm", "webm", "webm"},
		{"mp4", "webm", "mkv"},
		{"webm", "m4a", "mkv"},
	}
	for _, tt := range tests {
		if got := MergedContainer(tt.v, tt.a); got != tt.want {
			t.Errorf("MergedContainer(%q, %q) = %q, want %q", tt.v, tt.a, got, tt.want)
		}
	}
}

func TestExtensions_OverlapAcrossModes(t *testing.T) {
	has := func(exts []string, ext string) bool {
		for _, e := range exts {
			if e == ext {
				return true
			}
		}
		return false
	}
	audioExts := Extensions(model.ModeAudioOnly)
	videoExts := Extensions(model.ModeVideoOnly)
	if !has(audioExts, "webm") || !has(videoExts, "webm") {
		t.Errorf("webm should count as finished in every mode: audio=%v video=%v", audioExts, videoExts)
	}
	mixed := Extensions(model.ModeVideoAudio)
	if len(mixed) != len(videoExts) || !has(mixed, "mp4") || !has(videoExts, "mp4") {
		t.Errorf("video modes should share one extension set: video=%v video+audio=%v", videoExts, mixed)
	}
}
