package bus

import (
	"errors"
	"sync"
	"testing"

	"github.com/llehouerou/tapdeck/internal/playlist"
)

type dropCounter struct {
	mu    sync.Mutex
	drops map[string]int
}

func (d *dropCounter) BusDropped(kind string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drops == nil {
		d.drops = make(map[string]int)
	}
	d.drops[kind]++
}

func TestPublish_NoSubscriberDrops(t *testing.T) {
	obs := &dropCounter{}
	b := New(obs)

	if b.PlayPause(playlist.KindAudio) {
		t.Error("PlayPause() should report a drop without subscriber")
	}
	if obs.drops["audio"] != 1 {
		t.Errorf("drops = %v, want audio:1", obs.drops)
	}
}

func TestPublish_NotQueuedForLateSubscriber(t *testing.T) {
	b := New(nil)
	b.Next(playlist.KindAudio)

	sub, err := b.Subscribe(playlist.KindAudio)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	select {
	case in := <-sub.Intents():
		t.Errorf("late subscriber received %v", in.Type)
	default:
	}
}

func TestSubscribe_SecondSubscriberRejected(t *testing.T) {
	b := New(nil)

	first, err := b.Subscribe(playlist.KindVideo)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	_, err = b.Subscribe(playlist.KindVideo)
	if !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("second Subscribe() error = %v, want ErrAlreadySubscribed", err)
	}

	first.Close()

	again, err := b.Subscribe(playlist.KindVideo)
	if err != nil {
		t.Fatalf("Subscribe() after Close error = %v", err)
	}
	again.Close()
}

func TestPublish_RoutesByKind(t *testing.T) {
	b := New(nil)
	audio, _ := b.Subscribe(playlist.KindAudio)
	video, _ := b.Subscribe(playlist.KindVideo)
	defer audio.Close()
	defer video.Close()

	track := playlist.Track{ID: "v1"}
	if !b.SelectTrack(playlist.KindVideo, track, 3) {
		t.Fatal("SelectTrack() dropped")
	}
	if !b.Seek(playlist.KindAudio, 42) {
		t.Fatal("Seek() dropped")
	}

	in := <-video.Intents()
	if in.Type != IntentTrackSelected || in.Track.ID != "v1" || in.Index != 3 {
		t.Errorf("video intent = %+v", in)
	}
	in = <-audio.Intents()
	if in.Type != IntentSeek || in.Seconds != 42 {
		t.Errorf("audio intent = %+v", in)
	}
}

func TestPublish_PreservesOrder(t *testing.T) {
	b := New(nil)
	sub, _ := b.Subscribe(playlist.KindAudio)
	defer sub.Close()

	b.Next(playlist.KindAudio)
	b.Previous(playlist.KindAudio)
	b.PlayPause(playlist.KindAudio)

	want := []IntentType{IntentNext, IntentPrevious, IntentPlayPause}
	for _, w := range want {
		if got := (<-sub.Intents()).Type; got != w {
			t.Errorf("got %v, want %v", got, w)
		}
	}
}

func TestPublish_FullBufferDrops(t *testing.T) {
	obs := &dropCounter{}
	b := New(obs)
	sub, _ := b.Subscribe(playlist.KindAudio)
	defer sub.Close()

	for range intentBufferSize {
		if !b.Next(playlist.KindAudio) {
			t.Fatal("unexpected drop before buffer is full")
		}
	}
	if b.Next(playlist.KindAudio) {
		t.Error("Next() should drop when the buffer is full")
	}
	if obs.drops["audio"] != 1 {
		t.Errorf("drops = %v, want audio:1", obs.drops)
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	b := New(nil)
	sub, _ := b.Subscribe(playlist.KindAudio)

	sub.Close()
	sub.Close()

	if _, ok := <-sub.Intents(); ok {
		t.Error("Intents() should be closed")
	}
	if b.HasSubscriber(playlist.KindAudio) {
		t.Error("kind should be released after Close")
	}
}

func TestIntentType_String(t *testing.T) {
	if IntentTrackSelected.String() != "trackSelected" {
		t.Errorf("String() = %q", IntentTrackSelected.String())
	}
	if IntentType(42).String() != "unknown" {
		t.Errorf("String() = %q", IntentType(42).String())
	}
}
