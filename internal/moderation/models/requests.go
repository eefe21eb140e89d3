package models

type ReportGroupRequest struct {
	Reason  string  `json:"reason"`
	Details *string `json:"details,omitempty"`

	reason Reason
}

func (r *ReportGroupRequest) Validate() error {
	reason, err := ParseReason(r.Reason)
	if err != nil {
		return err
	}
	r.reason = reason
	return nil
}

func (r *ReportGroupRequest) Command() ReportCommand {
	return ReportCommand{Reason: r.reason, Details: r.Details}
}
