package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRunNoFilesIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--dir", dir)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "未找到原始题库文件") {
		t.Errorf("output = %q", out)
	}
}

func TestRunConvertsDirectory(t *testing.T) {
	dir := t.TempDir()
	bank := "1. What is 2+2?\nA. 3\nB. 4\n答案: B\n解析: basic\n2. 地球是圆的\n答案：错误\n"
	if err := os.WriteFile(filepath.Join(dir, "原始题库1.txt"), []byte(bank), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, "--dir", dir, "--out", outDir, "--format", "xlsx", "--concurrency", "2")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, want := range []string{"转换后的题目-合并.xlsx", "总题目数: 2", "判断题: 1 (50.0%)", "包含解析: 1 (50.0%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "转换后的题目-判断题.xlsx")); err != nil {
		t.Errorf("judge partition not written: %v", err)
	}
}

func TestRunRejectsArguments(t *testing.T) {
	if _, err := execute(t, "extra"); err == nil {
		t.Fatal("expected error for positional argument")
	}
}

func TestRunInvalidFlagValue(t *testing.T) {
	if _, err := execute(t, "--dir", t.TempDir(), "--concurrency", "0"); err == nil {
		t.Fatal("expected error for zero concurrency")
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "quizbank.yaml")
	if err := os.WriteFile(cfgPath, []byte("dir: "+dir+"\nprefix: bank\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bank.txt"), []byte("1. q\n答案: A\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", cfgPath)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "总题目数: 1") {
		t.Errorf("output = %q", out)
	}
}
