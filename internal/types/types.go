package types

// Tag identifies the kind of callback event raised by the content surface.
type Tag string

const (
	TagReady      Tag = "ready"
	TagMatch      Tag = "match"
	TagNotMatch   Tag = "notmatch"
	TagDetectOnly Tag = "detectonly"
	TagError      Tag = "error"
)

// Terminal reports whether the tag ends detection and triggers result collection.
func (t Tag) Terminal() bool {
	return t == TagMatch || t == TagNotMatch || t == TagDetectOnly
}

// Known reports whether the tag is part of the callback protocol.
func (t Tag) Known() bool {
	return t == TagReady || t == TagError || t.Terminal()
}

// CallbackEvent is a decoded callback://<tag>?<query> navigation.
// Params keeps the raw query so missing keys can be told apart from empty ones.
type CallbackEvent struct {
	Tag    Tag
	Params map[string][]string
}

// Lookup returns the first value for key and whether the key was present at all.
func (e CallbackEvent) Lookup(key string) (string, bool) {
	vs, ok := e.Params[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Get returns the first value for key, or "" when absent.
func (e CallbackEvent) Get(key string) string {
	v, _ := e.Lookup(key)
	return v
}

// GetOr returns the value for key, or def when the key is absent.
func (e CallbackEvent) GetOr(key, def string) string {
	if v, ok := e.Lookup(key); ok {
		return v
	}
	return def
}

func (e CallbackEvent) Name(def string) string { return e.GetOr("name", def) }
func (e CallbackEvent) Confidence() string     { return e.GetOr("confidence", "0") }
func (e CallbackEvent) IsMatch() bool          { return e.Get("isMatch") == "true" }
func (e CallbackEvent) HasImage() bool         { return e.Get("hasImage") == "true" }
func (e CallbackEvent) Message() string        { return e.Get("message") }

// DetectionOutcome is derived from a terminal CallbackEvent.
type DetectionOutcome struct {
	Matched          bool   `json:"matched"`
	HasCapturedImage bool   `json:"has_captured_image"`
	DisplayName      string `json:"display_name"`
	Confidence       string `json:"confidence"`
}

// Result is what a finished session hands back to its owner.
// CapturedImageBase64 is bare base64: any "data:<mime>;base64," prefix has been
// stripped, so it equals the persisted liveUserImg value.
type Result struct {
	CapturedImageBase64 string            `json:"captured_image_base64,omitempty"`
	WasCaptured         bool              `json:"was_captured"`
	Outcome             *DetectionOutcome `json:"outcome,omitempty"`
}

// Message is the JSON envelope exchanged with the content surface over any transport.
type Message struct {
	Type   string  `json:"type"`
	ID     uint64  `json:"id,omitempty"`
	Script string  `json:"script,omitempty"`
	Result *string `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
	URL    string  `json:"url,omitempty"`
	Cancel bool    `json:"cancel,omitempty"`
}

// Envelope types.
const (
	MessageEval        = "eval"
	MessageResult      = "result"
	MessageNavigate    = "navigate"
	MessageNavigateAck = "navigate_ack"
)
