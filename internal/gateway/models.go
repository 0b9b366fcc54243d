package gateway

// Wire types for the companion API. Containers mirror the JSON envelopes the
// API wraps around list responses.

// Item is a single point-shop entry. Quantity is remaining stock and only
// meaningful for non-raffle items.
type Item struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
	IsRaffle bool   `json:"isRaffle"`
	ImageURL string `json:"imageURL"`
}

type ItemContainer struct {
	Items []Item `json:"items"`
}

// CartContainer is the authoritative cart mapping returned by every cart
// read and mutation: item ID to unit count. The server never returns
// zero-count entries.
type CartContainer struct {
	Items  map[string]int `json:"items"`
	UserID string         `json:"userId"`
}

// QRInfo carries an opaque payload to render as a QR code. The client never
// interprets it beyond checking non-emptiness.
type QRInfo struct {
	UserID string `json:"userId,omitempty"`
	QRInfo string `json:"qrInfo"`
}

// RedeemResult is the response to a staff-side item redemption.
type RedeemResult struct {
	ItemID   string `json:"itemId"`
	Instance string `json:"instance,omitempty"`
}

type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Points    int    `json:"points"`
	Timezone  string `json:"timezone"`
	Discord   string `json:"discord"`
	AvatarURL string `json:"avatarUrl"`
}

type LeaderboardEntry struct {
	ID      string `json:"id"`
	Discord string `json:"discord"`
	Points  int    `json:"points"`
}

type LeaderboardContainer struct {
	Profiles []LeaderboardEntry `json:"profiles"`
}

// Event timestamps are unix seconds, matching the API.
type Event struct {
	EventID     string `json:"eventId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
	EventType   string `json:"eventType"`
	Points      int    `json:"points"`
	IsAsync     bool   `json:"isAsync"`
}

type EventContainer struct {
	Events []Event `json:"events"`
}

// CheckInResult reports a successful event self-scan.
type CheckInResult struct {
	Success     bool `json:"success"`
	Points      int  `json:"points"`
	TotalPoints int  `json:"totalPoints"`
}
