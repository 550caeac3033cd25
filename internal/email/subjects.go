package email

const (
	subjectLeadCapturedFmt = "New booking request: %s"
	subjectLeadCaptured    = "New booking request"
)
