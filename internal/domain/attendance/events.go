package attendance

// Live feed topic and event names.
const (
	EventTopic         = "attendance"
	EventPunchRecorded = "punch.recorded"
	EventDailyUpdated  = "daily.updated"
)
