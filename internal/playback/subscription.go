package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	StateChanged    <-chan StateChange
	TrackChanged    <-chan TrackChange
	PositionChanged <-chan PositionChange
	ListChanged     <-chan ListChange
	ModeChanged     <-chan ModeChange
	SleepChanged    <-chan SleepChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{} // closed when the controller shuts down

	stateCh    chan StateChange
	trackCh    chan TrackChange
	positionCh chan PositionChange
	listCh     chan ListChange
	modeCh     chan ModeChange
	sleepCh    chan SleepChange
	errorCh    chan ErrorEvent
	doneCh     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:    make(chan StateChange, eventBufferSize),
		trackCh:    make(chan TrackChange, eventBufferSize),
		positionCh: make(chan PositionChange, eventBufferSize),
		listCh:     make(chan ListChange, eventBufferSize),
		modeCh:     make(chan ModeChange, eventBufferSize),
		sleepCh:    make(chan SleepChange, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.TrackChanged = s.trackCh
	s.PositionChanged = s.positionCh
	s.ListChanged = s.listCh
	s.ModeChanged = s.modeCh
	s.SleepChanged = s.sleepCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop.
func (s *Subscription) close() {
	close(s.doneCh)
}

// trySend delivers e unless the subscriber is lagging a full buffer behind,
// in which case e is dropped.
func trySend[T any](ch chan T, e T) {
	select {
	case ch <- e:
	default:
	}
}

func (s *Subscription) sendState(e StateChange)       { trySend(s.stateCh, e) }
func (s *Subscription) sendTrack(e TrackChange)       { trySend(s.trackCh, e) }
func (s *Subscription) sendPosition(e PositionChange) { trySend(s.positionCh, e) }
func (s *Subscription) sendList(e ListChange)         { trySend(s.listCh, e) }
func (s *Subscription) sendMode(e ModeChange)         { trySend(s.modeCh, e) }
func (s *Subscription) sendSleep(e SleepChange)       { trySend(s.sleepCh, e) }
func (s *Subscription) sendError(e ErrorEvent)        { trySend(s.errorCh, e) }
