package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dialsched/cmd/cli/client"
	"github.com/dialsched/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var apiClient *client.APIClient

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to DialSched",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		token, err := apiClient.Login(username, password)
		if err != nil {
			return fmt.Errorf("login failed: %v", err)
		}

		viper.Set("token", token)
		if err := viper.WriteConfig(); err != nil {
			if err := viper.SafeWriteConfig(); err != nil {
				return fmt.Errorf("failed to save token: %v", err)
			}
		}
		fmt.Println("Login successful")
		return nil
	},
}

func newScheduleCommand() *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage activation schedules",
	}

	var typeFlag string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			schedules, err := apiClient.ListSchedules(typeFlag)
			if err != nil {
				return err
			}
			printSchedules(schedules)
			return nil
		},
	}
	listCmd.Flags().StringVar(&typeFlag, "type", "", "Filter by target type (list|campaign)")

	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Get schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid schedule ID: %v", err)
			}
			s, err := apiClient.GetSchedule(uint(id))
			if err != nil {
				return err
			}
			printSchedules([]models.Schedule{*s})
			return nil
		},
	}

	var (
		createType   string
		createTarget string
		createName   string
		createAction string
		createAt     string
		createEnd    string
		createRecur  string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := time.ParseInLocation("2006-01-02 15:04", createAt, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --at, expected \"YYYY-MM-DD HH:MM\": %v", err)
			}

			s := &models.Schedule{
				ScheduleType: models.ScheduleType(createType),
				TargetID:     createTarget,
				TargetName:   createName,
				Action:       models.Action(createAction),
				ScheduledAt:  at,
				Recurring:    models.Recurrence(createRecur),
			}
			if createEnd != "" {
				end, err := time.ParseInLocation("2006-01-02", createEnd, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --end, expected YYYY-MM-DD: %v", err)
				}
				s.EndAt = &end
			}

			created, err := apiClient.CreateSchedule(s)
			if err != nil {
				return err
			}
			fmt.Printf("Created schedule %d\n", created.ID)
			return nil
		},
	}
	createCmd.Flags().StringVar(&createType, "type", "campaign", "Target type (list|campaign)")
	createCmd.Flags().StringVar(&createTarget, "target", "", "Target identifier")
	createCmd.Flags().StringVar(&createName, "name", "", "Target display name")
	createCmd.Flags().StringVar(&createAction, "action", "activate", "Action (activate|deactivate)")
	createCmd.Flags().StringVar(&createAt, "at", "", "First occurrence, \"YYYY-MM-DD HH:MM\"")
	createCmd.Flags().StringVar(&createEnd, "end", "", "Optional end date, YYYY-MM-DD")
	createCmd.Flags().StringVar(&createRecur, "recurring", "none", "Recurrence (none|daily|weekly|monthly)")
	createCmd.MarkFlagRequired("target")
	createCmd.MarkFlagRequired("at")

	var (
		updateType   string
		updateTarget string
		updateName   string
		updateAction string
		updateAt     string
		updateEnd    string
		updateRecur  string
	)
	updateCmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid schedule ID: %v", err)
			}

			s, err := apiClient.GetSchedule(uint(id))
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("type") {
				s.ScheduleType = models.ScheduleType(updateType)
			}
			if cmd.Flags().Changed("target") {
				s.TargetID = updateTarget
			}
			if cmd.Flags().Changed("name") {
				s.TargetName = updateName
			}
			if cmd.Flags().Changed("action") {
				s.Action = models.Action(updateAction)
			}
			if cmd.Flags().Changed("at") {
				at, err := time.ParseInLocation("2006-01-02 15:04", updateAt, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --at, expected \"YYYY-MM-DD HH:MM\": %v", err)
				}
				s.ScheduledAt = at
			}
			if cmd.Flags().Changed("end") {
				if updateEnd == "" {
					s.EndAt = nil
				} else {
					end, err := time.ParseInLocation("2006-01-02", updateEnd, time.Local)
					if err != nil {
						return fmt.Errorf("invalid --end, expected YYYY-MM-DD: %v", err)
					}
					s.EndAt = &end
				}
			}
			if cmd.Flags().Changed("recurring") {
				s.Recurring = models.Recurrence(updateRecur)
			}

			updated, err := apiClient.UpdateSchedule(s)
			if err != nil {
				return err
			}
			printSchedules([]models.Schedule{*updated})
			return nil
		},
	}
	updateCmd.Flags().StringVar(&updateType, "type", "", "Target type (list|campaign)")
	updateCmd.Flags().StringVar(&updateTarget, "target", "", "Target identifier")
	updateCmd.Flags().StringVar(&updateName, "name", "", "Target display name")
	updateCmd.Flags().StringVar(&updateAction, "action", "", "Action (activate|deactivate)")
	updateCmd.Flags().StringVar(&updateAt, "at", "", "First occurrence, \"YYYY-MM-DD HH:MM\"")
	updateCmd.Flags().StringVar(&updateEnd, "end", "", "End date YYYY-MM-DD; pass an empty value to clear")
	updateCmd.Flags().StringVar(&updateRecur, "recurring", "", "Recurrence (none|daily|weekly|monthly)")

	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid schedule ID: %v", err)
			}
			if err := apiClient.DeleteSchedule(uint(id)); err != nil {
				return err
			}
			fmt.Println("Schedule deleted")
			return nil
		},
	}

	scheduleCmd.AddCommand(listCmd, getCmd, createCmd, updateCmd, deleteCmd)
	return scheduleCmd
}

func newUpcomingCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show schedules ordered by next trigger",
		RunE: func(cmd *cobra.Command, args []string) error {
			upcoming, err := apiClient.ListUpcoming(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "ID\tTYPE\tTARGET\tACTION\tNEXT DUE\tLAST OUTCOME\t")
			for _, u := range upcoming {
				outcome := "-"
				if u.LastOutcome != nil {
					outcome = string(*u.LastOutcome)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
					u.Schedule.ID, u.Schedule.ScheduleType, u.Schedule.TargetName,
					u.Schedule.Action, u.NextDue.Format("2006-01-02 15:04"), outcome)
			}
			w.Flush()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of schedules")
	return cmd
}

func newCalendarCommand() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show occurrence dates for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.ParseInLocation("2006-01", month, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --month, expected YYYY-MM: %v", err)
			}
			end := start.AddDate(0, 1, -1)

			occurrences, err := apiClient.ListOccurrences(
				start.Format("2006-01-02"), end.Format("2006-01-02"))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "ID\tTARGET\tACTION\tDATES\t")
			for _, o := range occurrences {
				dates := ""
				for i, d := range o.Dates {
					if i > 0 {
						dates += ", "
					}
					dates += d.Format("01-02")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n",
					o.Schedule.ID, o.Schedule.TargetName, o.Schedule.Action, dates)
			}
			w.Flush()
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", time.Now().Format("2006-01"), "Month to render, YYYY-MM")
	return cmd
}

func newExecutionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "executions [schedule-id]",
		Short: "Show execution history of a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid schedule ID: %v", err)
			}

			execs, err := apiClient.ListExecutions(uint(id))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "OCCURRENCE\tOUTCOME\tATTEMPTS\tEXECUTED AT\tERROR\t")
			for _, e := range execs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t\n",
					e.OccurrenceDate.Format("2006-01-02"), e.Outcome, e.Attempts,
					e.ExecutedAt.Format("2006-01-02 15:04:05"), e.Error)
			}
			w.Flush()
			return nil
		},
	}
}

func printSchedules(schedules []models.Schedule) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
	fmt.Fprintln(w, "ID\tTYPE\tTARGET\tNAME\tACTION\tSCHEDULED AT\tEND\tRECURRING\tEXECUTED\t")
	for _, s := range schedules {
		end := "-"
		if s.EndAt != nil {
			end = s.EndAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%v\t\n",
			s.ID, s.ScheduleType, s.TargetID, s.TargetName, s.Action,
			s.ScheduledAt.Format("2006-01-02 15:04"), end, s.Recurring, s.Executed)
	}
	w.Flush()
}
