package rtc

import "github.com/pion/webrtc/v4"

// DefaultConfig is the ICE server set handed to clients right after the
// signal connection is established. The gateway never opens a PeerConnection
// itself; browsers negotiate media directly with each other.
func DefaultConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}
