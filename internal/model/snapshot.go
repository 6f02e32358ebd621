package model

// Snapshot is the opaque persisted form of the entity store. Serializing
// then restoring a snapshot reproduces an identical set of patients,
// tasks and activity entries; TaskSeq carries the ordering counter so
// sequence numbers stay monotonic across restarts.
type Snapshot struct {
	Patients []*Patient       `json:"patients"`
	Tasks    []*Task          `json:"tasks"`
	Activity []*ActivityEntry `json:"activity"`
	Outbox   []*OutboxEvent   `json:"outbox"`
	TaskSeq  uint64           `json:"task_seq"`
}

// DashboardStats are the headline counters shown on the dashboard.
type DashboardStats struct {
	TotalPatients  int `json:"total_patients"`
	PendingTasks   int `json:"pending_tasks"`
	CompletedTasks int `json:"completed_tasks"`
}
