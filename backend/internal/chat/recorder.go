package chat

// Recorder receives relay lifecycle events for instrumentation.
type Recorder interface {
	RoomCreated()
	SessionOpened()
	SessionClosed()
	SessionTimedOut()
	MessageRelayed()
	PeerWriteFailed()
}

type nopRecorder struct{}

func (nopRecorder) RoomCreated()     {}
func (nopRecorder) SessionOpened()   {}
func (nopRecorder) SessionClosed()   {}
func (nopRecorder) SessionTimedOut() {}
func (nopRecorder) MessageRelayed()  {}
func (nopRecorder) PeerWriteFailed() {}

func recorderOrNop(rec Recorder) Recorder {
	if rec == nil {
		return nopRecorder{}
	}
	return rec
}
