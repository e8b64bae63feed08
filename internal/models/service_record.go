package models

// DefaultLocation is used when a record arrives without a counter location.
const DefaultLocation = "MPP Pandeglang, Jl. Jenderal Sudirman No. 1"

// ServiceRecord is the structured answer for a single public service. JSON keys follow the
// field names the language model is instructed to emit.
type ServiceRecord struct {
	Name         string   `json:"namaLayanan"`
	LegalBasis   []string `json:"dasarHukum,omitempty"`
	Requirements []string `json:"persyaratan"`
	Procedure    []string `json:"sistemMekanismeProsedur"`
	Duration     string   `json:"jangkaWaktu"`
	Location     string   `json:"lokasiGerai"`
	Fee          string   `json:"biaya,omitempty"`
	Note         string   `json:"catatanTambahan,omitempty"`
}

// Reply is the resolved answer to one message: either narrative text or a ServiceRecord.
type Reply struct {
	Text   string
	Record *ServiceRecord
}

func TextReply(text string) Reply {
	return Reply{Text: text}
}

func RecordReply(record *ServiceRecord) Reply {
	return Reply{Record: record}
}

func (r Reply) IsRecord() bool {
	return r.Record != nil
}
