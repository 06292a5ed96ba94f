package main

// @title           PDV Fiscal API
// @version         1.0
// @description     Motor de numeração e ciclo de vida de documentos fiscais para pontos de venda

// @contact.name   API Support
// @contact.email  support@pdv-fiscal.local

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Cabeçalho de autenticação JWT usando o esquema Bearer. Exemplo: "Bearer {token}"
