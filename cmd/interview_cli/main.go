package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "interview_cli",
	Short: "Mock interview CLI",
	Long: `interview_cli juega una entrevista simulada en la terminal contra el LLM configurado
y muestra las estadisticas del miembro al terminar.

Comandos:
- run: crea una entrevista y la responde pregunta a pregunta.
- stats: imprime dashboard, rendimiento por fase y tendencia.
- migrate: aplica el esquema SQL embebido sobre DATABASE_URL.`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	rootCmd.AddCommand(newRunCmd(), newStatsCmd(), newMigrateCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("INTERVIEW_CLI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("member-id", "cli-member", "member id que juega la entrevista")
	rootCmd.PersistentFlags().String("store", storeMemory, "store: memory | postgres")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("member-id", rootCmd.PersistentFlags().Lookup("member-id"))
	_ = viper.BindPFlag("store", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}
