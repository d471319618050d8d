package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality.
type ServiceContainer struct {
	Currency     CurrencySvcFacade
	Provider     ProviderSvcFacade
	ExchangeRate ExchangeRateSvcFacade
	Backfill     BackfillSvc
	Financial    FinancialSvc
}
