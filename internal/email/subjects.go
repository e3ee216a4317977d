package email

const (
	subjectRewardFmt = "Seu brinde do evento: %s"
)
