package session

// remoteVideo stands in for a player element living in the client. The
// engine pauses and releases it when its object leaves the scene.
type remoteVideo struct {
	session  *Session
	objectID string
	width    int
	height   int
	released bool
}

func (v *remoteVideo) Size() (int, int) { return v.width, v.height }

func (v *remoteVideo) Pause() {
	v.session.emit(TypeVideoPause, VideoPayload{ObjectID: v.objectID})
}

func (v *remoteVideo) Release() {
	if v.released {
		return
	}
	v.released = true
	v.session.emit(TypeVideoRelease, VideoPayload{ObjectID: v.objectID})
}
