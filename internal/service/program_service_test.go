package service

import (
	"context"
	"errors"
	"testing"

	"github.com/zahias/pillars/internal/dto"
)

// ── 测试辅助 ──

func setupTestProgramService() (ProgramService, *mockRepos) {
	repo, mocks := newMockRepository()
	return NewProgramService(repo, newTestLogger()), mocks
}

// ── Create 测试 ──

func TestProgramService_Create_Success(t *testing.T) {
	svc, _ := setupTestProgramService()

	result, err := svc.Create(context.Background(), &dto.CreateProgramRequest{
		Name:        "  Youth  ",
		Description: "青年项目",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Name != "Youth" {
		t.Errorf("期望名称去除空白后为 Youth，实际=%q", result.Name)
	}
	if result.ID == 0 {
		t.Error("期望分配 ID")
	}
}

func TestProgramService_Create_NameExists(t *testing.T) {
	svc, mocks := setupTestProgramService()

	// "Outreach" 已在 mockProgramRepo 初始化时存在
	_, err := svc.Create(context.Background(), &dto.CreateProgramRequest{Name: "Outreach", Description: "另一个"})
	if !errors.Is(err, ErrProgramNameExists) {
		t.Errorf("期望 ErrProgramNameExists，实际: %v", err)
	}

	original, _ := mocks.program.GetByName(context.Background(), "Outreach")
	if original.Description != "社区外展" {
		t.Errorf("重名时原记录不应被修改，实际描述=%q", original.Description)
	}
}

func TestProgramService_Create_BlankName(t *testing.T) {
	svc, _ := setupTestProgramService()

	_, err := svc.Create(context.Background(), &dto.CreateProgramRequest{Name: "   "})
	if !errors.Is(err, ErrNameRequired) {
		t.Errorf("期望 ErrNameRequired，实际: %v", err)
	}
}

// ── GetByID / List 测试 ──

func TestProgramService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestProgramService()

	_, err := svc.GetByID(context.Background(), 999)
	if !errors.Is(err, ErrProgramNotFound) {
		t.Errorf("期望 ErrProgramNotFound，实际: %v", err)
	}
}

func TestProgramService_List(t *testing.T) {
	svc, _ := setupTestProgramService()
	if _, err := svc.Create(context.Background(), &dto.CreateProgramRequest{Name: "Agriculture"}); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("期望 2 个项目，实际=%d", len(list))
	}
	if list[0].Name != "Agriculture" {
		t.Errorf("期望按名称排序，首个=%s", list[0].Name)
	}
}

// ── Update 测试 ──

func TestProgramService_Update_Success(t *testing.T) {
	svc, _ := setupTestProgramService()

	name := "Outreach 2"
	desc := "新描述"
	result, err := svc.Update(context.Background(), 1, &dto.UpdateProgramRequest{Name: &name, Description: &desc})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Name != name || result.Description != desc {
		t.Errorf("更新结果不符合预期: %+v", result)
	}
}

func TestProgramService_Update_NameConflict(t *testing.T) {
	svc, _ := setupTestProgramService()
	created, _ := svc.Create(context.Background(), &dto.CreateProgramRequest{Name: "Youth"})

	name := "Outreach"
	_, err := svc.Update(context.Background(), created.ID, &dto.UpdateProgramRequest{Name: &name})
	if !errors.Is(err, ErrProgramNameExists) {
		t.Errorf("期望 ErrProgramNameExists，实际: %v", err)
	}
}

func TestProgramService_Update_SameNameAllowed(t *testing.T) {
	svc, _ := setupTestProgramService()

	name := "Outreach"
	if _, err := svc.Update(context.Background(), 1, &dto.UpdateProgramRequest{Name: &name}); err != nil {
		t.Errorf("名称未变化时不应报冲突: %v", err)
	}
}

// ── Delete 测试 ──

func TestProgramService_Delete(t *testing.T) {
	svc, mocks := setupTestProgramService()

	if err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if len(mocks.program.deleted) != 1 || mocks.program.deleted[0] != 1 {
		t.Errorf("期望调用仓储删除 id=1，实际=%v", mocks.program.deleted)
	}

	if err := svc.Delete(context.Background(), 1); !errors.Is(err, ErrProgramNotFound) {
		t.Errorf("重复删除期望 ErrProgramNotFound，实际: %v", err)
	}
}
