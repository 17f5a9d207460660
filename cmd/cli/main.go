package main

import (
	"fmt"
	"os"

	"github.com/dialsched/cmd/cli/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dialsched",
	Short: "DialSched CLI - schedule campaign and list activation",
	Long: `DialSched CLI manages activation schedules for dialing campaigns and
contact lists: create one-shot or recurring schedules, inspect the calendar
of upcoming occurrences, and review execution history.`,
}

func init() {
	viper.SetConfigName("dialsched-cli")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.config")
	viper.AddConfigPath(".")
	viper.SetDefault("server", "http://localhost:8080")
	_ = viper.ReadInConfig()

	apiClient = client.NewAPIClient(viper.GetString("server"))

	loginCmd.Flags().String("username", "", "Username")
	loginCmd.Flags().String("password", "", "Password")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(newScheduleCommand())
	rootCmd.AddCommand(newUpcomingCommand())
	rootCmd.AddCommand(newCalendarCommand())
	rootCmd.AddCommand(newExecutionsCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
