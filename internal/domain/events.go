package domain

// Notification kinds delivered to the external notification collaborator.
const (
	NotifyPointsReceived = "points.received"
	NotifyPointsDeducted = "points.deducted"
	NotifyTimeoutStarted = "timeout.started"
	NotifyTimeoutExpired = "timeout.expired"
)

// Change-stream topics, keyed by record id.
const (
	TopicAccountPrefix    = "accounts/"
	TopicConnectionPrefix = "connections/"
)

// AccountTopic returns the stream topic carrying snapshots of one account.
func AccountTopic(accountID string) string {
	return TopicAccountPrefix + accountID
}

// ConnectionTransactionsTopic carries new transaction records for a
// connection, ordered by creation time for display.
func ConnectionTransactionsTopic(connectionID string) string {
	return TopicConnectionPrefix + connectionID + "/transactions"
}

// ConnectionTimeoutTopic carries timeout snapshots for a connection.
func ConnectionTimeoutTopic(connectionID string) string {
	return TopicConnectionPrefix + connectionID + "/timeout"
}

// PointsReceivedPayload is delivered to the receiver after a transfer.
type PointsReceivedPayload struct {
	TransactionID string `json:"transaction_id"`
	SenderID      string `json:"sender_id"`
	Points        int64  `json:"points"`
	Kind          string `json:"kind"`
	Message       string `json:"message,omitempty"`
	NewBalance    int64  `json:"new_balance"`
}

// TimeoutStartedPayload is delivered to the partner when a cooldown begins.
type TimeoutStartedPayload struct {
	TimeoutID       string `json:"timeout_id"`
	RequestedBy     string `json:"requested_by"`
	ConnectionID    string `json:"connection_id"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// TimeoutExpiredPayload is delivered to both parties when an observed
// timeout transitions from active to expired.
type TimeoutExpiredPayload struct {
	TimeoutID    string `json:"timeout_id"`
	ConnectionID string `json:"connection_id"`
}
