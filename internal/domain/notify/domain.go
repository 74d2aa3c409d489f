package notify

// TargetKind selects the delivery channel variant for a Target.
type TargetKind string

const (
	// KindChannel is a chat-channel announcement (Discord channel).
	KindChannel TargetKind = "channel"
	// KindDirect is a direct message (WhatsApp number).
	KindDirect TargetKind = "direct"
)

// Target is one delivery address. The dispatcher does not care which
// variant it holds; senders are looked up by Kind.
type Target struct {
	Kind    TargetKind `json:"kind"`
	Address string     `json:"address"`
}

// Message is a rendered notification, ready for any sender.
type Message struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	CoverURL string `json:"cover_url,omitempty"`
}

// Delivery is the outcome of one send attempt.
type Delivery struct {
	Target Target
	Err    error
}

// Report collects per-target outcomes of one dispatch.
type Report struct {
	Deliveries []Delivery
}

func (r Report) Failed() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Err != nil {
			n++
		}
	}
	return n
}

func (r Report) Sent() int { return len(r.Deliveries) - r.Failed() }
