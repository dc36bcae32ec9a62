package main

import (
	"fmt"
	"os"
	"syscall"

	"sealfs-go/internal/app"
	"sealfs-go/internal/config"
	"sealfs-go/internal/sealfs"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// promptPassphrase reads a passphrase from the terminal without echo. When
// confirm is set (key creation) it asks twice and checks the entries match.
func promptPassphrase(confirm bool) (string, error) {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	if !confirm {
		return string(first), nil
	}

	fmt.Fprint(os.Stderr, "Confirm passphrase: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase confirmation: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passphrases do not match")
	}
	return string(first), nil
}

// promptPassword reads a user password from the terminal without echo.
func promptPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// readConfig loads the config from the default (or env-overridden) path.
func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Encrypt", "UserAdd").
func newApp(operation string) (*app.App, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg, operation, promptPassphrase)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "sealfs",
	Short: "Chunked authenticated file encryption",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:       %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:        %s\n", cfg.LogDir)
		fmt.Printf("Storage Root:   %s\n", cfg.StorageRoot)
		fmt.Printf("Chunk Size:     %d\n", cfg.Container.ChunkSize)
		fmt.Printf("Extension Mode: %s\n", cfg.Container.ExtensionMode)
		fmt.Printf("Keyset Store:   %s\n", cfg.Keyset.Type)
		fmt.Printf("Master Key:     %s\n", cfg.MasterKey.Type)
		fmt.Printf("Auth Store:     %s\n", cfg.Auth.Type)
		return nil
	},
}

// keyset command
var keysetCmd = &cobra.Command{
	Use:   "keyset",
	Short: "Manage the sealed keyset",
}

var keysetInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Provision the master key and create the keyset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		created, err := app.InitKeyset(cfg, promptPassphrase)
		if err != nil {
			return fmt.Errorf("initializing keyset: %w", err)
		}

		if created {
			fmt.Println("Keyset created.")
		} else {
			fmt.Println("Keyset already exists; nothing to do.")
		}
		return nil
	},
}

// encrypt command
var encryptCmd = &cobra.Command{
	Use:   "encrypt SOURCE DEST",
	Short: "Seal a file into an encrypted container",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		a, err := newApp("Encrypt")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Encrypt(args[0], args[1], name)
		if err != nil {
			return fmt.Errorf("encrypting: %w", err)
		}

		fmt.Printf("Sealed %s (%s)\n", args[1], sealfs.FormatBytes(n))
		return nil
	},
}

// decrypt command
var decryptCmd = &cobra.Command{
	Use:   "decrypt SOURCE DEST",
	Short: "Recover the plaintext from an encrypted container",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		a, err := newApp("Decrypt")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Decrypt(args[0], args[1], name)
		if err != nil {
			return fmt.Errorf("decrypting: %w", err)
		}

		fmt.Printf("Recovered %s (%s)\n", args[1], sealfs.FormatBytes(n))
		return nil
	},
}

// inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show container metadata without decrypting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Inspect")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Inspect(args[0])
		if err != nil {
			return fmt.Errorf("inspecting: %w", err)
		}

		fmt.Printf("Version:       %d\n", report.Header.Version)
		fmt.Printf("Chunk Size:    %d\n", report.Header.ChunkSize)
		fmt.Printf("Original Size: %s\n", sealfs.FormatBytes(report.Header.OriginalSize))
		fmt.Printf("Chunks:        %d\n", report.ChunkCount)
		fmt.Printf("Sealed Bytes:  %s\n", sealfs.FormatBytes(report.SealedBytes))
		fmt.Printf("File Size:     %s\n", sealfs.FormatBytes(uint64(report.FileSize)))
		return nil
	},
}

// verify command
var verifyCmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Decrypt and authenticate every chunk, discarding the plaintext",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		a, err := newApp("Verify")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Verify(args[0], name)
		if err != nil {
			return fmt.Errorf("verifying: %w", err)
		}

		fmt.Printf("OK: %s verified (%s)\n", args[0], sealfs.FormatBytes(n))
		return nil
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user credentials",
}

var userAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "Create or replace a user credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Password")
		if err != nil {
			return err
		}
		confirmation, err := promptPassword("Confirm password")
		if err != nil {
			return err
		}
		if password != confirmation {
			return fmt.Errorf("passwords do not match")
		}

		a, err := newApp("UserAdd")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RegisterUser(cmd.Context(), args[0], password); err != nil {
			return fmt.Errorf("registering user: %w", err)
		}

		if _, err := a.UserHomeDir(args[0]); err != nil {
			return err
		}

		fmt.Printf("User %s registered\n", args[0])
		return nil
	},
}

var userVerifyCmd = &cobra.Command{
	Use:   "verify USERNAME",
	Short: "Check a username/password pair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Password")
		if err != nil {
			return err
		}

		a, err := newApp("UserVerify")
		if err != nil {
			return err
		}
		defer a.Close()

		ok, err := a.VerifyUser(cmd.Context(), args[0], password)
		if err != nil {
			return fmt.Errorf("verifying user: %w", err)
		}
		if !ok {
			return fmt.Errorf("invalid credentials")
		}

		fmt.Println("OK")
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UserList")
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.ListUsers(cmd.Context())
		if err != nil {
			return err
		}

		if len(users) == 0 {
			fmt.Println("No users registered.")
			return nil
		}

		for _, u := range users {
			fmt.Printf("%s  %s\n", u.CreatedAt.Format("2006-01-02 15:04:05"), u.Username)
		}
		return nil
	},
}

var userRmCmd = &cobra.Command{
	Use:   "rm USERNAME",
	Short: "Delete a user credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UserRemove")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveUser(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("removing user: %w", err)
		}

		fmt.Printf("User %s removed\n", args[0])
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keyset subcommands
	keysetCmd.AddCommand(keysetInitCmd)

	// user subcommands
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userVerifyCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userRmCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysetCmd)
	rootCmd.AddCommand(encryptCmd)
	encryptCmd.Flags().StringP("name", "n", "", "Logical name bound into the chunks (default: DEST)")
	rootCmd.AddCommand(decryptCmd)
	decryptCmd.Flags().StringP("name", "n", "", "Logical name the container was written under (default: SOURCE)")
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringP("name", "n", "", "Logical name the container was written under (default: FILE)")
	rootCmd.AddCommand(userCmd)
}
