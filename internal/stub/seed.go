package stub

import (
	"github.com/exotrack/exotrack-console/internal/domain"

	"go.uber.org/zap"
)

// Seed loads a small demo dataset: one accountant, two customers, a few
// declarations with line items. Passwords are "admin123" for the admin and
// "cliente123" for the customers.
func Seed(store *Store, logger *zap.Logger) error {
	admin, err := store.CreateUser(domain.CreateUserRequest{
		DocumentNumber: "1000000001",
		FullName:       "Gloria Ramirez",
		Email:          "gloria@exotrack.test",
		PhoneNumber:    "3001234567",
		Password:       "admin123",
		Role:           domain.RoleAdmin,
	})
	if err != nil {
		return err
	}

	carlos, err := store.CreateUser(domain.CreateUserRequest{
		DocumentNumber: "79845123",
		FullName:       "Carlos Mendoza",
		Email:          "carlos.mendoza@example.com",
		PhoneNumber:    "3109876543",
		Password:       "cliente123",
		Role:           domain.RoleUser,
	})
	if err != nil {
		return err
	}

	lucia, err := store.CreateUser(domain.CreateUserRequest{
		DocumentNumber: "52367890",
		FullName:       "Lucia Torres",
		Email:          "lucia.torres@example.com",
		PhoneNumber:    "3156547890",
		Password:       "cliente123",
		Role:           domain.RoleUser,
	})
	if err != nil {
		return err
	}

	d2023, err := store.CreateDeclaration(domain.CreateDeclarationRequest{
		UserID:      carlos.ID,
		TaxableYear: 2023,
		Description: "Declaracion renta 2023",
	})
	if err != nil {
		return err
	}
	if _, err := store.UpdateDeclaration(d2023.ID, domain.StatusCompleted, d2023.Description); err != nil {
		return err
	}

	d2024, err := store.CreateDeclaration(domain.CreateDeclarationRequest{
		UserID:      carlos.ID,
		TaxableYear: 2024,
		Description: "Declaracion renta 2024",
	})
	if err != nil {
		return err
	}

	dl2024, err := store.CreateDeclaration(domain.CreateDeclarationRequest{
		UserID:      lucia.ID,
		TaxableYear: 2024,
	})
	if err != nil {
		return err
	}

	items := []struct {
		kind domain.ItemKind
		req  domain.CreateLineItemRequest
	}{
		{domain.KindAsset, domain.CreateLineItemRequest{DeclarationID: d2024.ID, Concept: "Apartamento Chapinero", Amount: 350000000, Source: domain.SourceManual}},
		{domain.KindAsset, domain.CreateLineItemRequest{DeclarationID: d2024.ID, Concept: "Vehiculo Mazda 3 2021", Amount: 78000000, Source: domain.SourceManual}},
		{domain.KindAsset, domain.CreateLineItemRequest{DeclarationID: d2024.ID, Concept: "Cuenta de ahorros Bancolombia", Amount: 12500000, Source: domain.SourceExogeno}},
		{domain.KindIncome, domain.CreateLineItemRequest{DeclarationID: d2024.ID, Concept: "Salario anual", Amount: 96000000, Source: domain.SourceExogeno}},
		{domain.KindIncome, domain.CreateLineItemRequest{DeclarationID: d2024.ID, Concept: "Arriendo local comercial", Amount: 24000000, Source: domain.SourceManual}},
		{domain.KindLiability, domain.CreateLineItemRequest{DeclarationID: d2024.ID, Concept: "Credito hipotecario", Amount: 180000000, Source: domain.SourceManual}},
		{domain.KindLiability, domain.CreateLineItemRequest{DeclarationID: d2024.ID, Concept: "Tarjeta de credito Visa", Amount: 4300000, Source: domain.SourceExogeno}},
		{domain.KindAsset, domain.CreateLineItemRequest{DeclarationID: dl2024.ID, Concept: "CDT Davivienda", Amount: 45000000, Source: domain.SourceManual}},
		{domain.KindIncome, domain.CreateLineItemRequest{DeclarationID: dl2024.ID, Concept: "Honorarios consultoria", Amount: 58000000, Source: domain.SourceManual}},
	}
	for _, it := range items {
		if _, err := store.CreateItem(it.kind, it.req); err != nil {
			return err
		}
	}

	logger.Info("demo data seeded",
		zap.String("admin_document", admin.DocumentNumber),
		zap.Int("users", 3),
		zap.Int("declarations", 3),
		zap.Int("line_items", len(items)),
	)
	return nil
}
