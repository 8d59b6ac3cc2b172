package keys

// TaskMapRule renames FromTask to ToTask, either for one job or globally when
// JobNo is empty.
type TaskMapRule struct {
	JobNo    string
	FromTask string
	ToTask   string
}

// TaskMap is a two-tier task rename table: job-specific rules win over
// global rules, unmapped names pass through.
type TaskMap struct {
	global map[string]string
	byJob  map[string]map[string]string
}

// NewTaskMap canonicalises the rules and indexes them by job. Rules with an
// empty FromTask are dropped.
func NewTaskMap(rules []TaskMapRule) TaskMap {
	m := TaskMap{
		global: make(map[string]string),
		byJob:  make(map[string]map[string]string),
	}
	for _, rule := range rules {
		from := TaskName(rule.FromTask)
		if from == "" {
			continue
		}
		to := TaskName(rule.ToTask)
		job := JobNo(rule.JobNo)
		if job == "" {
			m.global[from] = to
			continue
		}
		if m.byJob[job] == nil {
			m.byJob[job] = make(map[string]string)
		}
		m.byJob[job][from] = to
	}
	return m
}

// Len reports the number of rules held.
func (m TaskMap) Len() int {
	n := len(m.global)
	for _, rules := range m.byJob {
		n += len(rules)
	}
	return n
}

// Apply maps a canonical task name for the given canonical job number.
func (m TaskMap) Apply(jobNo, task string) string {
	if mapped := m.byJob[jobNo][task]; mapped != "" {
		return mapped
	}
	if mapped, ok := m.global[task]; ok && mapped != "" {
		return mapped
	}
	return task
}
