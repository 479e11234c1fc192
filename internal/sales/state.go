package sales

// CommitState tracks a transaction through the commit pipeline. States past
// StatePersisted never revert: failures after persistence downgrade to
// warnings instead of rolling the record back.
type CommitState string

const (
	StateDraft               CommitState = "draft"
	StateValidated           CommitState = "validated"
	StatePersisted           CommitState = "persisted"
	StateInventoryReconciled CommitState = "inventory_reconciled"
	StateCreditReconciled    CommitState = "credit_reconciled"
	StateComplete            CommitState = "complete"
	StateFailed              CommitState = "failed"
)

// Step labels the pipeline stage a warning or failure originated in.
type Step string

const (
	StepValidate  Step = "validate"
	StepPersist   Step = "persist"
	StepInventory Step = "inventory"
	StepCredit    Step = "credit"
	StepCache     Step = "cache"
)

// Warning is a post-persistence reconcile failure. The sale or swap record
// stands; the operator corrects the named step by hand.
type Warning struct {
	Step    Step   `json:"step"`
	Message string `json:"message"`
}
