package ioc

import (
	"fmt"

	"github.com/KNICEX/price-sentinel/internal/service/market"
	binancequote "github.com/KNICEX/price-sentinel/internal/service/market/binance"
	paprikaquote "github.com/KNICEX/price-sentinel/internal/service/market/coinpaprika"
	"github.com/adshao/go-binance/v2"
	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/spf13/viper"
)

func InitBinanceCli() *binance.Client {
	type Config struct {
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("quote.binance", &cfg); err != nil {
		panic(err)
	}

	return binance.NewClient(cfg.ApiKey, cfg.ApiSecret)
}

func InitCoinpaprikaCli() *coinpaprika.Client {
	apiKey := viper.GetString("quote.coinpaprika.api_key")
	if apiKey != "" {
		return coinpaprika.NewClient(newHTTPClient(), coinpaprika.WithAPIKey(apiKey))
	}
	return coinpaprika.NewClient(newHTTPClient())
}

// InitQuoteService picks the provider named by quote.provider.
func InitQuoteService() market.QuoteService {
	provider := viper.GetString("quote.provider")
	switch provider {
	case "coinpaprika":
		return paprikaquote.NewQuoteService(InitCoinpaprikaCli())
	case "binance", "":
		return binancequote.NewQuoteService(InitBinanceCli())
	default:
		panic(fmt.Errorf("unknown quote provider: %s", provider))
	}
}
