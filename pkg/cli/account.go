package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harrisonrobin/steady/pkg/account"
	"github.com/harrisonrobin/steady/pkg/api"
	"github.com/harrisonrobin/steady/pkg/auth"
	"github.com/harrisonrobin/steady/pkg/model"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			var err error
			if email, err = p.orAsk(email, "Email", false); err != nil {
				return err
			}
			if password, err = p.orAsk(password, "Password", true); err != nil {
				return err
			}
			user, err := a.accounts(cmd.ErrOrStderr()).Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Signed in as "+displayName(user)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newSignupCmd(a *app) *cobra.Command {
	var req api.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			fields := []struct {
				v      *string
				label  string
				secret bool
			}{
				{&req.Name, "Name", false},
				{&req.Email, "Email", false},
				{&req.DOB, "Date of birth (YYYY-MM-DD)", false},
				{&req.Gender, "Gender (" + strings.Join(account.Genders, ", ") + ")", false},
				{&req.Password, "Password", true},
				{&req.ConfirmPassword, "Confirm password", true},
			}
			for _, f := range fields {
				v, err := p.orAsk(*f.v, f.label, f.secret)
				if err != nil {
					return err
				}
				*f.v = v
			}

			user, signedIn, err := a.accounts(cmd.ErrOrStderr()).Signup(cmd.Context(), req)
			if err != nil {
				return err
			}
			if signedIn {
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Welcome, "+displayName(user)+"! You are signed in."))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Account created. Run `steady login` to sign in."))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&req.DOB, "dob", "", "date of birth, YYYY-MM-DD")
	cmd.Flags().StringVar(&req.Gender, "gender", "", "Male, Female or Prefer not to say")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "password confirmation (prompted when omitted)")
	return cmd
}

func newGoogleLoginCmd(a *app) *cobra.Command {
	var profile model.ProfileInfo
	cmd := &cobra.Command{
		Use:   "google-login",
		Short: "Sign in with your Google account",
		Long: `Sign in with Google through the browser. The first sign-in creates the
account and needs --name, --dob and --gender.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			raw, err := auth.GoogleIDToken(ctx)
			if err != nil {
				return err
			}
			if a.cfg.GoogleClientID != "" {
				if _, err := auth.VerifyIDToken(ctx, raw, a.cfg.GoogleClientID); err != nil {
					return err
				}
			}

			var extra *model.ProfileInfo
			if profile != (model.ProfileInfo{}) {
				extra = &profile
			}
			user, err := a.accounts(cmd.ErrOrStderr()).GoogleLogin(ctx, raw, extra)
			if errors.Is(err, account.ErrProfileRequired) {
				return fmt.Errorf("%w: rerun with --name, --dob and --gender", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Signed in as "+displayName(user)))
			return nil
		},
	}
	cmd.Flags().StringVar(&profile.Name, "name", "", "full name, for a first sign-in")
	cmd.Flags().StringVar(&profile.DOB, "dob", "", "date of birth YYYY-MM-DD, for a first sign-in")
	cmd.Flags().StringVar(&profile.Gender, "gender", "", "gender, for a first sign-in")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.accounts(cmd.ErrOrStderr()).Logout(); err != nil {
				return err
			}
			if err := auth.ForgetGoogleToken(); err != nil {
				a.logFor("cli").WithError(err).Warn("could not remove Google token")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.accounts(cmd.ErrOrStderr()).Profile(cmd.Context())
			if err != nil {
				return err
			}
			if ok, err := encode(cmd.OutOrStdout(), a.output, user); ok {
				return err
			}
			t := newTable("FIELD", "VALUE").
				Row("Name", user.Name).
				Row("Email", user.Email).
				Row("Gender", user.Gender).
				Row("Date of birth", user.DOB).
				Row("Sign-in", user.AuthProvider)
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-name NAME",
		Short: "Change your display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.accounts(cmd.ErrOrStderr()).UpdateName(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Name updated."))
			return nil
		},
	})
	return cmd
}

func newPasswordCmd(a *app) *cobra.Command {
	var current, next, confirm string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password, or set one for a Google account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.accounts(cmd.ErrOrStderr())
			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())

			user := a.session.User()
			google := user != nil && user.AuthProvider == model.ProviderGoogle
			var err error
			if !google {
				if current, err = p.orAsk(current, "Current password", true); err != nil {
					return err
				}
			}
			if next, err = p.orAsk(next, "New password", true); err != nil {
				return err
			}
			if confirm, err = p.orAsk(confirm, "Confirm new password", true); err != nil {
				return err
			}
			if err := svc.ChangePassword(cmd.Context(), current, next, confirm); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Password updated."))
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password (prompted when omitted)")
	cmd.Flags().StringVar(&next, "new", "", "new password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "new password again (prompted when omitted)")
	return cmd
}

func displayName(u *model.User) string {
	switch {
	case u == nil:
		return "you"
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	}
	return "you"
}
