// Package attrition analyses an employee attrition export: attrition rates by
// department, role, age group and workplace factors, mean comparisons with
// t-tests between leavers and stayers, and correlations with attrition.
package attrition
