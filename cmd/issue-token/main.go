// Command issue-token prints an auth token for an account, for submitting
// results from scripts and test rigs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ougirez/boptest/internal/pkg/config"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/utils"
	"github.com/spf13/viper"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	accountID := flag.Int64("account", 0, "account id")
	name := flag.String("name", "", "account display name")
	flag.Parse()

	if err := config.Load(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *accountID <= 0 {
		fmt.Fprintln(os.Stderr, "-account must be positive")
		os.Exit(2)
	}
	if viper.GetString(constants.ViperSecretKey) == "" {
		fmt.Fprintf(os.Stderr, "%s must be set\n", constants.ViperSecretKey)
		os.Exit(2)
	}

	token, err := utils.GenerateAuthToken(&utils.AuthTokenWrapper{AccountID: *accountID, DisplayName: *name})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
