package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"boekhouden/internal/middleware"
)

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "hash-password",
		Short:       "Read a password from stdin and print its bcrypt hash for web.password_hash",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				return errors.New("empty password")
			}

			hash, err := middleware.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
