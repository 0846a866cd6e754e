package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dailies/internal/app"
	"dailies/internal/model"
)

var habitCmd = &cobra.Command{
	Use:     "habit",
	Aliases: []string{"h"},
	Short:   "Manage habits",
}

var (
	habitTitle       string
	habitType        string
	habitGoal        string
	habitUnit        string
	habitFrequency   string
	habitReminders   []string
	habitSensor      string
	habitDescription string
	habitDate        string

	// Habit loop: cue, craving, response, reward, how to apply.
	habitLoop [5]string
)

var habitLoopFlags = [5]string{"cue", "craving", "response", "reward", "how"}

// parseGoal reads --goal as a duration for timer habits and as a number
// otherwise.
func parseGoal(typ model.HabitType, s string) (timerGoal int, numericGoal float64, err error) {
	if s == "" {
		return 0, 0, nil
	}
	if typ == model.HabitTimer {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, 0, fmt.Errorf("timer goal %q: want a duration like 25m", s)
		}
		return int(d.Seconds()), 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("goal %q: want a number", s)
	}
	return 0, v, nil
}

var habitAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Add a habit",
	Example: `  dailies habit add "Read" --remind 21:00
  dailies habit add "Water" --type numeric --goal 8 --unit glasses
  dailies habit add "Focus" --type timer --goal 25m
  dailies habit add "Walk" --sensor steps --goal 8000 --unit steps`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		typ := model.HabitType(habitType)
		timerGoal, numericGoal, err := parseGoal(typ, habitGoal)
		if err != nil {
			return err
		}
		in := model.Habit{
			Title:         args[0],
			Description:   habitDescription,
			Frequency:     model.Frequency(habitFrequency),
			Reminders:     habitReminders,
			Type:          typ,
			TimerGoal:     timerGoal,
			NumericGoal:   numericGoal,
			NumericUnit:   habitUnit,
			IsSensorBased: habitSensor != "",
			SensorType:    habitSensor,
			Cue:           habitLoop[0],
			Craving:       habitLoop[1],
			Response:      habitLoop[2],
			Reward:        habitLoop[3],
			HowToApply:    habitLoop[4],
		}
		h, err := e.store.AddHabit(in)
		if err := e.checkMutation(err); err != nil {
			return err
		}
		fmt.Println(e.styles.HabitLine(h, e.store.Today()))
		return nil
	},
}

var habitEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change a habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		id, err := e.habitID(args[0])
		if err != nil {
			return err
		}
		cur, err := e.store.Habit(id)
		if err != nil {
			return err
		}

		var patch app.HabitPatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			patch.Title = &habitTitle
		}
		if flags.Changed("description") {
			patch.Description = &habitDescription
		}
		typ := cur.Type
		if flags.Changed("type") {
			typ = model.HabitType(habitType)
			patch.Type = &typ
		}
		if flags.Changed("frequency") {
			f := model.Frequency(habitFrequency)
			patch.Frequency = &f
		}
		if flags.Changed("goal") {
			timerGoal, numericGoal, err := parseGoal(typ, habitGoal)
			if err != nil {
				return err
			}
			if typ == model.HabitTimer {
				patch.TimerGoal = &timerGoal
			} else {
				patch.NumericGoal = &numericGoal
			}
		}
		if flags.Changed("unit") {
			patch.NumericUnit = &habitUnit
		}
		if flags.Changed("sensor") {
			sensor := habitSensor != ""
			patch.IsSensorBased = &sensor
			patch.SensorType = &habitSensor
		}
		if flags.Changed("remind") {
			patch.Reminders = &habitReminders
		}
		loop := [5]**string{&patch.Cue, &patch.Craving, &patch.Response, &patch.Reward, &patch.HowToApply}
		for i, name := range habitLoopFlags {
			if flags.Changed(name) {
				*loop[i] = &habitLoop[i]
			}
		}

		h, err := e.store.UpdateHabit(id, patch)
		if err := e.checkMutation(err); err != nil {
			return err
		}
		fmt.Println(e.styles.HabitLine(h, e.store.Today()))
		return nil
	},
}

var habitListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List habits with today's state and streaks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		habits := e.store.Habits()
		if len(habits) == 0 {
			fmt.Println(e.styles.IDStyle.Render("no habits"))
			return nil
		}
		today := e.store.Today()
		for _, h := range habits {
			fmt.Println(e.styles.HabitLine(h, today))
		}
		return nil
	},
}

var habitToggleCmd = &cobra.Command{
	Use:     "toggle ID",
	Aliases: []string{"done"},
	Short:   "Mark a habit done for a day, or undo it",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		id, err := e.habitID(args[0])
		if err != nil {
			return err
		}
		h, err := e.store.ToggleHabit(id, habitDate)
		if err := e.checkMutation(err); err != nil {
			return err
		}
		fmt.Println(e.styles.HabitLine(h, e.store.Today()))
		return nil
	},
}

var habitProgressCmd = &cobra.Command{
	Use:   "progress ID DELTA",
	Short: "Add to a numeric habit's progress (negative to correct)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("delta %q: want a number", args[1])
		}
		return habitProgress(args[0], func(e *env, id string) (model.Habit, error) {
			return e.store.UpdateNumericProgress(id, habitDate, delta)
		})
	},
}

var habitSensorCmd = &cobra.Command{
	Use:   "sensor ID VALUE",
	Short: "Record a sensor reading for a sensor-based habit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("value %q: want a number", args[1])
		}
		return habitProgress(args[0], func(e *env, id string) (model.Habit, error) {
			return e.store.UpdateSensorProgress(id, habitDate, value)
		})
	},
}

var habitTimerCmd = &cobra.Command{
	Use:   "timer ID DURATION",
	Short: "Log time spent on a timer habit, e.g. 25m",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("duration %q: %w", args[1], err)
		}
		return habitProgress(args[0], func(e *env, id string) (model.Habit, error) {
			return e.store.AddTimerProgress(id, habitDate, d)
		})
	},
}

func habitProgress(ref string, apply func(e *env, id string) (model.Habit, error)) error {
	e, err := openSession()
	if err != nil {
		return err
	}
	defer e.close()

	id, err := e.habitID(ref)
	if err != nil {
		return err
	}
	h, err := apply(e, id)
	if err := e.checkMutation(err); err != nil {
		return err
	}
	fmt.Println(e.styles.HabitLine(h, e.store.Today()))
	return nil
}

var habitRmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Delete a habit",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openSession()
		if err != nil {
			return err
		}
		defer e.close()

		id, err := e.habitID(args[0])
		if err != nil {
			return err
		}
		h, err := e.store.Habit(id)
		if err != nil {
			return err
		}
		if err := e.checkMutation(e.store.DeleteHabit(id)); err != nil {
			return err
		}
		fmt.Println(e.styles.Success("deleted " + h.Title))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{habitAddCmd, habitEditCmd} {
		f := c.Flags()
		f.StringVar(&habitType, "type", string(model.HabitCheck), "check, timer or numeric")
		f.StringVar(&habitGoal, "goal", "", "daily goal: a number, or a duration for timer habits")
		f.StringVar(&habitUnit, "unit", "", "unit shown with numeric progress")
		f.StringVar(&habitFrequency, "frequency", string(model.FrequencyDaily), "daily, weekly or monthly")
		f.StringArrayVar(&habitReminders, "remind", nil, "daily reminder time HH:mm (repeatable)")
		f.StringVar(&habitSensor, "sensor", "", "sensor type feeding progress, e.g. steps")
		f.StringVar(&habitDescription, "description", "", "description")
		f.StringVar(&habitLoop[0], habitLoopFlags[0], "", "what triggers the habit")
		f.StringVar(&habitLoop[1], habitLoopFlags[1], "", "the motivation behind it")
		f.StringVar(&habitLoop[2], habitLoopFlags[2], "", "the action itself")
		f.StringVar(&habitLoop[3], habitLoopFlags[3], "", "what you get from it")
		f.StringVar(&habitLoop[4], habitLoopFlags[4], "", "how to apply it")
	}
	habitEditCmd.Flags().StringVar(&habitTitle, "title", "", "new title")

	for _, c := range []*cobra.Command{habitToggleCmd, habitProgressCmd, habitSensorCmd, habitTimerCmd} {
		c.Flags().StringVar(&habitDate, "date", "", "day to record (YYYY-MM-DD, default today)")
	}

	habitCmd.AddCommand(
		habitAddCmd,
		habitEditCmd,
		habitListCmd,
		habitToggleCmd,
		habitProgressCmd,
		habitSensorCmd,
		habitTimerCmd,
		habitRmCmd,
	)
}
