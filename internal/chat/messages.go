package chat

// User-facing replies for turns that never produce a model answer.
const (
	MsgRejected    = "Maaf, pesan Anda mengandung konten yang tidak diizinkan. Silakan ajukan pertanyaan yang sesuai."
	MsgRateLimited = "Maaf, Anda telah mencapai batas permintaan. Silakan tunggu sebentar sebelum mencoba lagi."
	MsgFailure     = "Maaf, terjadi sedikit kendala pada sistem. Bisakah Anda mencoba bertanya dengan cara lain?"
)

// Outcome classifies how a send ended.
type Outcome int

const (
	OutcomeText Outcome = iota
	OutcomeRecord
	OutcomeRejected
	OutcomeRateLimited
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeText:
		return "text"
	case OutcomeRecord:
		return "record"
	case OutcomeRejected:
		return "rejected"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}
