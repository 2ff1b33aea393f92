// Package app is the terminal front end: one full player per media kind,
// a mini-player for the other kind, and the track list of the active one.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tapdeck/internal/bus"
	"github.com/llehouerou/tapdeck/internal/notify"
	"github.com/llehouerou/tapdeck/internal/playback"
	"github.com/llehouerou/tapdeck/internal/playlist"
	"github.com/llehouerou/tapdeck/internal/playlists"
	"github.com/llehouerou/tapdeck/internal/ui/tracklist"
)

// TrackSource lists the tracks of a media kind.
type TrackSource interface {
	ListTracks(ctx context.Context, kind playlist.Kind) ([]playlist.Track, error)
}

// Deps are the collaborators the front end drives. Controllers must already
// listen on their bus subscriptions.
type Deps struct {
	Controllers []*playback.Controller
	Bus         *bus.Bus
	Orders      *playlists.Manager
	Tracks      TrackSource
	Notifier    notify.Notifier // optional
}

// Player is the view state of one controller.
type Player struct {
	Kind     playlist.Kind
	Ctrl     *playback.Controller
	sub      *playback.Subscription
	list     tracklist.Model
	restored bool
	sleepIdx int
	notifyID uint32
}

// Model is the root application model.
type Model struct {
	ctx       context.Context
	players   []*Player
	active    int
	miniFocus bool
	bus       *bus.Bus
	orders    *playlists.Manager
	source    TrackSource
	notifier  notify.Notifier

	notice        string
	noticeErr     bool
	noticeVersion int
	showHelp      bool

	Width  int
	Height int
}

// New creates the application model. ctx bounds the network calls the
// front end issues.
func New(ctx context.Context, deps Deps) Model {
	m := Model{
		ctx:      ctx,
		bus:      deps.Bus,
		orders:   deps.Orders,
		source:   deps.Tracks,
		notifier: deps.Notifier,
	}
	for _, c := range deps.Controllers {
		m.players = append(m.players, &Player{
			Kind: c.Kind(),
			Ctrl: c,
			sub:  c.Subscribe(),
			list: tracklist.New(c.Kind()),
		})
	}
	if len(m.players) > 0 {
		m.players[0].list.SetFocused(true)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, 2*len(m.players))
	for _, p := range m.players {
		cmds = append(cmds, loadTracksCmd(m.ctx, m.source, p.Kind), watchPlayer(p))
	}
	return tea.Batch(cmds...)
}

// Active returns the player shown in full.
func (m Model) Active() *Player {
	if len(m.players) == 0 {
		return nil
	}
	return m.players[m.active]
}

// Mini returns the player shown in the mini-player, or nil with a single
// media kind.
func (m Model) Mini() *Player {
	if len(m.players) < 2 {
		return nil
	}
	return m.players[(m.active+1)%len(m.players)]
}

func (m Model) player(kind playlist.Kind) *Player {
	for _, p := range m.players {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}
