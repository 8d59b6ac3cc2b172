package importer

import (
	"errors"
	"fmt"
	"os"

	"jobprofit/internal/keys"
)

var taskMapColumns = struct {
	jobNo, fromTask, toTask column
}{
	jobNo:    optional("job_no", "Job No", "Job Number"),
	fromTask: required("from_task", "From Task"),
	toTask:   required("to_task", "To Task"),
}

// LoadTaskMap reads a job_no,from_task,to_task CSV. A missing file yields an
// empty map; an empty job_no makes the rule global.
func LoadTaskMap(path string) (keys.TaskMap, error) {
	if path == "" {
		return keys.NewTaskMap(nil), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return keys.NewTaskMap(nil), nil
	}

	table, err := (&CSVReader{}).Read(path)
	if err != nil {
		return keys.TaskMap{}, fmt.Errorf("read task map: %w", err)
	}
	if len(table.Headers) == 0 {
		return keys.NewTaskMap(nil), nil
	}

	c := taskMapColumns
	if err := checkColumns(table, c.fromTask, c.toTask); err != nil {
		return keys.TaskMap{}, err
	}

	rules := make([]keys.TaskMapRule, 0, len(table.Records))
	for _, record := range table.Records {
		rules = append(rules, keys.TaskMapRule{
			JobNo:    c.jobNo.get(record),
			FromTask: c.fromTask.get(record),
			ToTask:   c.toTask.get(record),
		})
	}
	return keys.NewTaskMap(rules), nil
}
