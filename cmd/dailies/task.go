package main

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dailies/internal/app"
	"dailies/internal/model"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	Short:   "Manage tasks",
}

// Flags shared by add and edit.
var (
	taskDue       string
	taskAt        string
	taskPriority  int
	taskCategory  string
	taskReminders []string
	taskDuration  int
	taskSubtasks  []string
	taskTitle     string
	taskListAll   bool
)

var taskAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Add a task",
	Example: `  dailies task add "Pay rent" --due tomorrow -p 1 -r 1h -r 1d
  dailies task add "Call dentist" --due 2026-03-12 --at 15:00 -c Health`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		due, err := parseDay(taskDue, time.Now())
		if err != nil {
			return err
		}
		in := model.Task{
			Title:     args[0],
			Priority:  taskPriority,
			Category:  taskCategory,
			DueDate:   due,
			DueTime:   taskAt,
			Duration:  taskDuration,
			Reminders: taskReminders,
		}
		for _, st := range taskSubtasks {
			in.Subtasks = append(in.Subtasks, model.Subtask{Title: st})
		}

		t, err := e.store.AddTask(in)
		if err := e.checkMutation(err); err != nil {
			return err
		}
		fmt.Println(e.styles.TaskLine(t, e.store.Today()))
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List open tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		tasks := e.store.Tasks()
		if !taskListAll {
			tasks = slices.DeleteFunc(tasks, func(t model.Task) bool { return t.Completed })
		}
		sortTasks(tasks)
		if len(tasks) == 0 {
			fmt.Println(e.styles.IDStyle.Render("no tasks"))
			return nil
		}
		today := e.store.Today()
		for _, t := range tasks {
			fmt.Println(e.styles.TaskLine(t, today))
		}
		return nil
	},
}

// sortTasks orders open before done, dated before undated, then by due date
// and priority.
func sortTasks(tasks []model.Task) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		if a.Completed != b.Completed {
			if a.Completed {
				return 1
			}
			return -1
		}
		if (a.DueDate == "") != (b.DueDate == "") {
			if a.DueDate == "" {
				return 1
			}
			return -1
		}
		return cmp.Or(
			cmp.Compare(a.DueDate, b.DueDate),
			cmp.Compare(a.DueTime, b.DueTime),
			cmp.Compare(a.Priority, b.Priority),
		)
	})
}

var taskDoneCmd = &cobra.Command{
	Use:     "done ID",
	Aliases: []string{"toggle"},
	Short:   "Complete a task, or reopen a completed one",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		id, err := e.taskID(args[0])
		if err != nil {
			return err
		}
		t, err := e.store.ToggleTask(id)
		if err := e.checkMutation(err); err != nil {
			return err
		}
		fmt.Println(e.styles.TaskLine(t, e.store.Today()))
		return nil
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change a task",
	Long: `Change a task. Only the flags given are applied; pass an empty value
(--due "" or --at "") to clear the due date or time. --remind and --subtask
replace the whole list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		id, err := e.taskID(args[0])
		if err != nil {
			return err
		}

		var patch app.TaskPatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			patch.Title = &taskTitle
		}
		if flags.Changed("priority") {
			patch.Priority = &taskPriority
		}
		if flags.Changed("category") {
			patch.Category = &taskCategory
		}
		if flags.Changed("due") {
			due, err := parseDay(taskDue, time.Now())
			if err != nil {
				return err
			}
			patch.DueDate = &due
		}
		if flags.Changed("at") {
			patch.DueTime = &taskAt
		}
		if flags.Changed("duration") {
			patch.Duration = &taskDuration
		}
		if flags.Changed("remind") {
			patch.Reminders = &taskReminders
		}
		if flags.Changed("subtask") {
			subs := make([]model.Subtask, 0, len(taskSubtasks))
			for _, st := range taskSubtasks {
				subs = append(subs, model.Subtask{Title: st})
			}
			patch.Subtasks = &subs
		}

		t, err := e.store.UpdateTask(id, patch)
		if err := e.checkMutation(err); err != nil {
			return err
		}
		fmt.Println(e.styles.TaskLine(t, e.store.Today()))
		return nil
	},
}

var taskSubtaskCmd = &cobra.Command{
	Use:   "check ID N",
	Short: "Toggle the Nth subtask (1-based)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		id, err := e.taskID(args[0])
		if err != nil {
			return err
		}
		t, err := e.store.Task(id)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > len(t.Subtasks) {
			return fmt.Errorf("subtask %q: task has %d subtasks", args[1], len(t.Subtasks))
		}
		subs := t.Subtasks
		subs[n-1].Completed = !subs[n-1].Completed

		t, err = e.store.UpdateTask(id, app.TaskPatch{Subtasks: &subs})
		if err := e.checkMutation(err); err != nil {
			return err
		}
		fmt.Println(e.styles.TaskLine(t, e.store.Today()))
		return nil
	},
}

var taskRmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		id, err := e.taskID(args[0])
		if err != nil {
			return err
		}
		t, err := e.store.Task(id)
		if err != nil {
			return err
		}
		if err := e.checkMutation(e.store.DeleteTask(id)); err != nil {
			return err
		}
		fmt.Println(e.styles.Success("deleted " + t.Title))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{taskAddCmd, taskEditCmd} {
		f := c.Flags()
		f.StringVar(&taskDue, "due", "", "due date: YYYY-MM-DD, today or tomorrow")
		f.StringVar(&taskAt, "at", "", "due time (HH:mm)")
		f.IntVarP(&taskPriority, "priority", "p", 0, "priority 1 (highest) to 4")
		f.StringVarP(&taskCategory, "category", "c", "", "label")
		f.StringArrayVarP(&taskReminders, "remind", "r", nil, "reminder before due: 30m, 1h, 1d (repeatable)")
		f.IntVar(&taskDuration, "duration", 0, "estimated minutes")
		f.StringArrayVar(&taskSubtasks, "subtask", nil, "subtask title (repeatable)")
	}
	taskEditCmd.Flags().StringVar(&taskTitle, "title", "", "new title")
	taskListCmd.Flags().BoolVarP(&taskListAll, "all", "a", false, "include completed tasks")

	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskDoneCmd, taskEditCmd, taskSubtaskCmd, taskRmCmd)
}
