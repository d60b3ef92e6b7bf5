package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	domainTenant "github.com/AzielCF/az-citas/domains/tenant"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage businesses and the WhatsApp numbers bound to them",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a business",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantCreate,
}

var tenantBindCmd = &cobra.Command{
	Use:   "bind <business-id> <phone-number-id>",
	Short: "Route a phone_number_id to a business",
	Args:  cobra.ExactArgs(2),
	RunE:  runTenantBind,
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List businesses",
	RunE:  runTenantList,
}

var tenantDisableCmd = &cobra.Command{
	Use:   "disable <business-id>",
	Short: "Stop routing messages to a business",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return setTenantActive(args[0], false)
	},
}

var tenantEnableCmd = &cobra.Command{
	Use:   "enable <business-id>",
	Short: "Resume routing messages to a business",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return setTenantActive(args[0], true)
	},
}

func init() {
	tenantCreateCmd.Flags().String("type", domainTenant.DefaultBusinessType, "business type used by the assistant prompt")
	tenantCreateCmd.Flags().String("settings", "", "path to a JSON settings document")

	tenantBindCmd.Flags().String("phone", "", "display phone number")
	tenantBindCmd.Flags().String("token", "", "access token for this number (defaults to WHATSAPP_ACCESS_TOKEN)")
	tenantBindCmd.Flags().String("api-version", "", "Graph API version for this number, e.g. v18.0")

	tenantCmd.AddCommand(tenantCreateCmd, tenantBindCmd, tenantListCmd, tenantDisableCmd, tenantEnableCmd)
	rootCmd.AddCommand(tenantCmd)
}

func withAdmin(fn func(ctx context.Context, c *container) error) error {
	ctx := context.Background()
	c, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func runTenantCreate(cmd *cobra.Command, args []string) error {
	businessType, _ := cmd.Flags().GetString("type")
	req := domainTenant.CreateBusinessRequest{Name: args[0], BusinessType: businessType}

	if path, _ := cmd.Flags().GetString("settings"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		}
		if req.Settings, err = domainTenant.ParseSettings(raw); err != nil {
			return err
		}
	}

	return withAdmin(func(ctx context.Context, c *container) error {
		b, err := c.admin.CreateBusiness(ctx, req)
		if err != nil {
			return err
		}
		logrus.WithField("business_id", b.ID).Info("[TENANT] Business created")
		fmt.Println(b.ID)
		return nil
	})
}

func runTenantBind(cmd *cobra.Command, args []string) error {
	phone, _ := cmd.Flags().GetString("phone")
	token, _ := cmd.Flags().GetString("token")
	apiVersion, _ := cmd.Flags().GetString("api-version")

	return withAdmin(func(ctx context.Context, c *container) error {
		n, err := c.admin.BindNumber(ctx, domainTenant.BindNumberRequest{
			BusinessID:    args[0],
			PhoneNumberID: args[1],
			PhoneNumber:   phone,
			AccessToken:   token,
			APIVersion:    apiVersion,
		})
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"business_id":     n.BusinessID,
			"phone_number_id": n.PhoneNumberID,
		}).Info("[TENANT] Number bound")
		return nil
	})
}

func runTenantList(_ *cobra.Command, _ []string) error {
	return withAdmin(func(ctx context.Context, c *container) error {
		businesses, err := c.admin.ListBusinesses(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tACTIVE\tCREATED")
		for _, b := range businesses {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", b.ID, b.Name, b.BusinessType, b.IsActive, humanize.Time(b.CreatedAt))
		}
		return w.Flush()
	})
}

func setTenantActive(id string, active bool) error {
	return withAdmin(func(ctx context.Context, c *container) error {
		if err := c.admin.SetBusinessActive(ctx, id, active); err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{"business_id": id, "active": active}).Info("[TENANT] Business updated")
		return nil
	})
}
