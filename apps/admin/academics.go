package main

import (
	"context"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/trezcool/kalvi/core"
	"github.com/trezcool/kalvi/core/academics"
	"github.com/trezcool/kalvi/core/exams"
)

func (cli *commandLine) addBranch(nb academics.NewBranch) error {
	if err := nb.Validate(cli.validate); err != nil {
		return cli.validationErr(err)
	}
	branch, err := cli.acadSvc.CreateBranch(context.Background(), nb)
	if err != nil {
		return err
	}
	cli.success("branch %q created (id %d)", branch.CityName, branch.ID)
	return nil
}

func (cli *commandLine) addCourse(nc academics.NewCourse) error {
	if err := nc.Validate(cli.validate); err != nil {
		return cli.validationErr(err)
	}
	course, err := cli.acadSvc.CreateCourse(context.Background(), nc)
	if err != nil {
		return err
	}
	cli.success("course %q created (id %d)", course.Name, course.ID)
	return nil
}

func (cli *commandLine) addBatch(nb academics.NewBatch) error {
	if err := nb.Validate(cli.validate); err != nil {
		return cli.validationErr(err)
	}
	batch, err := cli.acadSvc.CreateBatch(context.Background(), nb)
	if err != nil {
		return err
	}
	cli.success("batch %q of %s in %s created (id %d)", batch.Name, batch.CourseName, batch.BranchCity, batch.ID)
	return nil
}

func (cli *commandLine) addStudent(ns academics.NewStudent) error {
	if err := ns.Validate(cli.validate); err != nil {
		return cli.validationErr(err)
	}
	std, err := cli.acadSvc.CreateStudent(context.Background(), ns)
	if err != nil {
		return cli.validationErr(err)
	}
	cli.success("student %q enrolled in %q (id %d)", std.FullName, std.BatchName, std.ID)
	return nil
}

func (cli *commandLine) addExam(ne exams.NewExam) error {
	if err := ne.Validate(cli.validate); err != nil {
		return cli.validationErr(err)
	}
	exam, err := cli.examSvc.CreateExam(context.Background(), ne)
	if err != nil {
		return err
	}
	cli.success("exam %q on %s created (id %d)", exam.Title, core.FormatDate(exam.ExamDate), exam.ID)
	return nil
}

func (cli *commandLine) listStudents(batchID int64, activeOnly bool) error {
	ctx := context.Background()
	batch, err := cli.acadSvc.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	students, err := cli.acadSvc.QueryStudents(ctx, academics.StudentFilter{BatchID: batch.ID, ActiveOnly: activeOnly})
	if err != nil {
		return err
	}

	cli.title("%s %d, %s (%s)", batch.Name, batch.Year, batch.CourseName, batch.BranchCity)
	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"ID", "Admission No", "Name", "Guardian", "Phone", "Active"})
	for _, std := range students {
		table.Append([]string{
			strconv.FormatInt(std.ID, 10),
			std.AdmissionNo,
			std.FullName,
			std.GuardianName,
			std.GuardianPhone,
			strconv.FormatBool(std.Active),
		})
	}
	table.Render()
	return nil
}

func (cli *commandLine) listBranches() error {
	branches, err := cli.acadSvc.QueryBranches(context.Background())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"ID", "City", "Address", "Phone"})
	for _, branch := range branches {
		table.Append([]string{
			strconv.FormatInt(branch.ID, 10),
			branch.CityName,
			branch.Address,
			branch.Phone,
		})
	}
	table.Render()
	return nil
}
