package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/connectord/internal/config"
	"github.com/custodia-labs/connectord/internal/core/domain"
)

var connectorCmd = &cobra.Command{
	Use:   "connector",
	Short: "Inspect and manage connector control-plane documents",
	Long:  `List, create, and show Connector documents in the connectors index.`,
}

var connectorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connectors",
	RunE:  runConnectorList,
}

var connectorShowCmd = &cobra.Command{
	Use:   "show [connector-id]",
	Short: "Show a connector's control-plane document",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnectorShow,
}

var connectorCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new connector document",
	RunE:  runConnectorCreate,
}

var (
	createServiceType string
	createIndexName   string
	createIsNative    bool
)

func init() {
	connectorCreateCmd.Flags().StringVar(&createServiceType, "service-type", "", "adapter service_type (e.g. jira, filesystem)")
	connectorCreateCmd.Flags().StringVar(&createIndexName, "index-name", "", "target search index name")
	connectorCreateCmd.Flags().BoolVar(&createIsNative, "native", true, "run this connector in-process")

	connectorCmd.AddCommand(connectorListCmd)
	connectorCmd.AddCommand(connectorShowCmd)
	connectorCmd.AddCommand(connectorCreateCmd)
	rootCmd.AddCommand(connectorCmd)
}

func resolveGateway() (domain.IndexGateway, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	return buildGateway(cfg.Gateway)
}

func runConnectorList(cmd *cobra.Command, _ []string) error {
	gw, closeGW, err := resolveGateway()
	if err != nil {
		return err
	}
	defer closeGW()

	ctx := context.Background()
	stream, err := gw.Query(ctx, domain.ConnectorsIndex, domain.QueryFilter{Index: domain.ConnectorsIndex})
	if err != nil {
		return err
	}
	defer stream.Close()

	count := 0
	for stream.Next(ctx) {
		id, doc := stream.Doc()
		c := domain.NewConnector(gw, id, doc)
		cmd.Printf("%s\t%s\t%s\n", c.ID(), c.ServiceType(), c.Status())
		count++
	}
	if err := stream.Err(); err != nil {
		return err
	}
	if count == 0 {
		cmd.Println("no connectors found")
	}
	return nil
}

func runConnectorShow(cmd *cobra.Command, args []string) error {
	gw, closeGW, err := resolveGateway()
	if err != nil {
		return err
	}
	defer closeGW()

	c, err := domain.LoadConnector(context.Background(), gw, args[0])
	if err != nil {
		return fmt.Errorf("load connector: %w", err)
	}
	cmd.Printf("id:                %s\n", c.ID())
	cmd.Printf("service_type:      %s\n", c.ServiceType())
	cmd.Printf("status:            %s\n", c.Status())
	cmd.Printf("is_native:         %t\n", c.IsNative())
	cmd.Printf("index_name:        %s\n", c.IndexName())
	cmd.Printf("last_sync_status:  %s\n", c.LastSyncStatus())
	if msg := c.Error(); msg != "" {
		cmd.Printf("error:             %s\n", msg)
	}
	return nil
}

func runConnectorCreate(cmd *cobra.Command, _ []string) error {
	if createServiceType == "" {
		return errors.New("--service-type is required")
	}
	if createIndexName == "" {
		return errors.New("--index-name is required")
	}

	gw, closeGW, err := resolveGateway()
	if err != nil {
		return err
	}
	defer closeGW()

	doc := domain.RawDoc{
		"service_type": createServiceType,
		"index_name":   createIndexName,
		"is_native":    createIsNative,
		"status":       string(domain.StatusCreated),
		"configuration": domain.RawDoc{},
	}
	id, err := gw.Index(context.Background(), domain.ConnectorsIndex, doc)
	if err != nil {
		return fmt.Errorf("create connector: %w", err)
	}
	cmd.Printf("created connector %s\n", id)
	return nil
}
