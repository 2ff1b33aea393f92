package notify

// nopNotifier drops every notification.
type nopNotifier struct{}

func (nopNotifier) Notify(Notification) (uint32, error) { return 0, nil }

func (nopNotifier) Close(uint32) error { return nil }

// Nop returns a notifier that drops every notification.
func Nop() Notifier {
	return nopNotifier{}
}
